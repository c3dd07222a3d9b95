package schema

import "github.com/u2takey/go-utils/sets"

type FieldType string

const (
	StringField  FieldType = "string"
	IntegerField FieldType = "integer"
	BooleanField FieldType = "boolean"
	EnumField    FieldType = "enum"
)

// Format narrows a field beyond its primitive type. Format checks run with
// the type check and reuse the upstream apimachinery validators.
type Format string

const (
	FormatNone    Format = ""
	FormatDNS1123 Format = "dns1123"
	FormatPort    Format = "port"
)

// FieldDef declares one field of a resource kind. Paths are dotted
// (e.g. "spec.service.port"). A field with EnabledBy set is gated: it is
// only meaningful while the gating field is truthy and is omitted from the
// canonical record otherwise.
type FieldDef struct {
	Path      string      `json:"path"`
	Type      FieldType   `json:"type"`
	Format    Format      `json:"format,omitempty"`
	Required  bool        `json:"required,omitempty"`
	Default   interface{} `json:"default,omitempty"`
	Enum      []string    `json:"enum,omitempty"`
	Min       *int64      `json:"min,omitempty"`
	Max       *int64      `json:"max,omitempty"`
	EnabledBy string      `json:"enabled_by,omitempty"`
}

// EnumSet returns the declared enum values as a set.
func (f FieldDef) EnumSet() sets.String {
	return sets.NewString(f.Enum...)
}

// CrossFieldRule requires the listed paths to be non-empty whenever the
// gate path is truthy.
type CrossFieldRule struct {
	ID       string   `json:"id"`
	Gate     string   `json:"gate"`
	Requires []string `json:"requires"`
	Message  string   `json:"message,omitempty"`
}

// Injection declares a fixed nested entry written at serialization time,
// never taken from caller-supplied data. When EnabledBy is set the entry is
// only emitted while that gate is truthy.
type Injection struct {
	Path      string `json:"path"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	EnabledBy string `json:"enabled_by,omitempty"`
}

// Kind is one registered resource schema. Field declaration order is the
// canonical order for violations and serialized output. Immutable once
// registered.
type Kind struct {
	ID         string           `json:"id"`
	APIVersion string           `json:"api_version"`
	Fields     []FieldDef       `json:"fields"`
	Rules      []CrossFieldRule `json:"rules,omitempty"`
	Injections []Injection      `json:"injections,omitempty"`
}

// Truthy reports whether a raw field value gates a conditional section on.
func Truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "True"
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0.0
	case nil:
		return false
	default:
		return false
	}
}
