package types

import (
	"time"

	"k8s.io/apimachinery/pkg/runtime"
)

// ViolationKind classifies one schema or cross-field rule failure.
type ViolationKind string

const (
	MissingField        ViolationKind = "MissingField"
	TypeMismatch        ViolationKind = "TypeMismatch"
	InvalidEnumValue    ViolationKind = "InvalidEnumValue"
	OutOfRange          ViolationKind = "OutOfRange"
	CrossFieldViolation ViolationKind = "CrossFieldViolation"
)

// Violation describes one rule failure, scoped to a field path.
type Violation struct {
	Path    string        `json:"path"`
	Kind    ViolationKind `json:"kind"`
	Message string        `json:"message"`
}

// Warning records a non-fatal normalization note, e.g. an unknown field
// path that was dropped at the input boundary.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// DraftRecord is an in-progress, possibly invalid resource instance keyed
// by dotted field path (e.g. "spec.service.port"). It is mutable and owned
// by a single edit session.
type DraftRecord struct {
	KindID   string
	fields   map[string]interface{}
	warnings []Warning
}

func NewDraftRecord(kindID string) *DraftRecord {
	return &DraftRecord{
		KindID: kindID,
		fields: make(map[string]interface{}),
	}
}

func (d *DraftRecord) Set(path string, value interface{}) {
	d.fields[path] = value
}

func (d *DraftRecord) Get(path string) (interface{}, bool) {
	v, ok := d.fields[path]
	return v, ok
}

func (d *DraftRecord) Delete(path string) {
	delete(d.fields, path)
}

// Fields returns a shallow copy of the draft's field map.
func (d *DraftRecord) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(d.fields))
	for k, v := range d.fields {
		out[k] = v
	}
	return out
}

func (d *DraftRecord) AddWarning(path, message string) {
	d.warnings = append(d.warnings, Warning{Path: path, Message: message})
}

func (d *DraftRecord) Warnings() []Warning {
	return d.warnings
}

// CanonicalRecord is a fully validated, immutable resource instance. It is
// produced only by the validator; the backing storage is a deep copy so
// later edits to the originating draft cannot leak in.
type CanonicalRecord struct {
	kindID     string
	fields     map[string]interface{}
	acceptedAt time.Time
}

// NewCanonicalRecord deep-copies fields into an immutable record. Values
// must be JSON-compatible (string, bool, int64, float64, maps, slices).
func NewCanonicalRecord(kindID string, fields map[string]interface{}) *CanonicalRecord {
	return &CanonicalRecord{
		kindID:     kindID,
		fields:     runtime.DeepCopyJSON(fields),
		acceptedAt: time.Now(),
	}
}

func (c *CanonicalRecord) KindID() string {
	return c.kindID
}

func (c *CanonicalRecord) AcceptedAt() time.Time {
	return c.acceptedAt
}

func (c *CanonicalRecord) Get(path string) (interface{}, bool) {
	v, ok := c.fields[path]
	return v, ok
}

// Fields returns a deep copy; callers cannot reach the canonical storage.
func (c *CanonicalRecord) Fields() map[string]interface{} {
	return runtime.DeepCopyJSON(c.fields)
}

// ValidationResult is either an accepted canonical record or an ordered
// list of violations, never both.
type ValidationResult struct {
	Canonical  *CanonicalRecord `json:"-"`
	Violations []Violation      `json:"violations,omitempty"`
}

func Accepted(rec *CanonicalRecord) *ValidationResult {
	return &ValidationResult{Canonical: rec}
}

func Rejected(violations []Violation) *ValidationResult {
	return &ValidationResult{Violations: violations}
}

func (r *ValidationResult) IsAccepted() bool {
	return r.Canonical != nil
}
