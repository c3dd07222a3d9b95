package engine

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/aonescu/torii/internal/schema"
	"github.com/aonescu/torii/internal/types"
)

// Engine validates draft records against registered kinds. Validation
// accumulates every violation instead of failing fast, so a caller can
// show all problems at once. Violation order follows the kind's field
// declaration order, then cross-field rule declaration order.
type Engine struct {
	registry      *schema.Registry
	mu            sync.RWMutex
	validationLog []ValidationLogEntry
}

type ValidationLogEntry struct {
	KindID     string
	Accepted   bool
	Violations int
	Timestamp  time.Time
	Duration   time.Duration
}

func New(registry *schema.Registry) *Engine {
	return &Engine{
		registry:      registry,
		validationLog: make([]ValidationLogEntry, 0),
	}
}

// Validate checks a draft against its kind. The error return is reserved
// for registry misuse (unknown kind); every user-recoverable problem comes
// back inside the ValidationResult. On success the draft is promoted to an
// immutable CanonicalRecord backed by a defensive deep copy, so the caller
// may keep editing the draft afterwards.
func (e *Engine) Validate(draft *types.DraftRecord) (*types.ValidationResult, error) {
	startTime := time.Now()

	kind, err := e.registry.Lookup(draft.KindID)
	if err != nil {
		return nil, err
	}

	working := draft.Fields()
	pruneUnknown(working, kind)
	pruneGatedOff(working, kind)
	applyDefaults(working, kind)

	var violations []types.Violation
	for _, field := range kind.Fields {
		violations = append(violations, checkField(field, working)...)
	}
	for _, rule := range kind.Rules {
		violations = append(violations, checkRule(rule, working)...)
	}

	e.logValidation(kind.ID, len(violations) == 0, len(violations), time.Since(startTime))

	if len(violations) > 0 {
		return types.Rejected(violations), nil
	}

	pruneFalseGates(working, kind)
	return types.Accepted(types.NewCanonicalRecord(kind.ID, working)), nil
}

// pruneUnknown drops paths the kind does not declare. The normalizer warns
// about these at the boundary already; drafts coming from the text parser
// get the same treatment here.
func pruneUnknown(working map[string]interface{}, kind *schema.RegisteredKind) {
	for path := range working {
		if !kind.Knows(path) {
			delete(working, path)
		}
	}
}

// pruneGatedOff removes fields whose gate is not truthy. A disabled section
// contributes no keys to the canonical record, not null placeholders.
func pruneGatedOff(working map[string]interface{}, kind *schema.RegisteredKind) {
	for _, field := range kind.Fields {
		if field.EnabledBy == "" {
			continue
		}
		if !schema.Truthy(working[field.EnabledBy]) {
			delete(working, field.Path)
		}
	}
}

// pruneFalseGates drops falsy gate fields at promotion so a disabled
// section leaves no key at all, the gate included.
func pruneFalseGates(working map[string]interface{}, kind *schema.RegisteredKind) {
	for _, field := range kind.Fields {
		if kind.IsGate(field.Path) && !schema.Truthy(working[field.Path]) {
			delete(working, field.Path)
		}
	}
}

func applyDefaults(working map[string]interface{}, kind *schema.RegisteredKind) {
	for _, field := range kind.Fields {
		if _, present := working[field.Path]; present {
			continue
		}
		if field.EnabledBy != "" && !schema.Truthy(working[field.EnabledBy]) {
			continue
		}
		if field.Default != nil {
			working[field.Path] = field.Default
		}
	}
}

// checkField validates a single declared field. A missing required field
// reports exactly one MissingField violation and suppresses the follow-on
// checks for that path.
func checkField(field schema.FieldDef, working map[string]interface{}) []types.Violation {
	value, present := working[field.Path]
	if s, ok := value.(string); present && ok && s == "" {
		// Empty strings count as omissions; an optional empty field is
		// dropped rather than carried into the canonical record.
		present = false
		delete(working, field.Path)
	}

	if !present {
		if field.Required {
			return []types.Violation{{
				Path:    field.Path,
				Kind:    types.MissingField,
				Message: fmt.Sprintf("required field %s is missing", field.Path),
			}}
		}
		return nil
	}

	switch field.Type {
	case schema.IntegerField:
		n, ok := asInt64(value)
		if !ok {
			return []types.Violation{{
				Path:    field.Path,
				Kind:    types.TypeMismatch,
				Message: fmt.Sprintf("field %s is %v (expected an integer)", field.Path, value),
			}}
		}
		working[field.Path] = n
		return checkBounds(field, n)

	case schema.BooleanField:
		if _, ok := value.(bool); !ok {
			return []types.Violation{{
				Path:    field.Path,
				Kind:    types.TypeMismatch,
				Message: fmt.Sprintf("field %s is %v (expected a boolean)", field.Path, value),
			}}
		}

	case schema.StringField:
		s, ok := value.(string)
		if !ok {
			return []types.Violation{{
				Path:    field.Path,
				Kind:    types.TypeMismatch,
				Message: fmt.Sprintf("field %s is %v (expected a string)", field.Path, value),
			}}
		}
		if field.Format == schema.FormatDNS1123 {
			if errs := validation.IsDNS1123Subdomain(s); len(errs) > 0 {
				return []types.Violation{{
					Path:    field.Path,
					Kind:    types.TypeMismatch,
					Message: fmt.Sprintf("field %s: %s", field.Path, strings.Join(errs, "; ")),
				}}
			}
		}

	case schema.EnumField:
		s, ok := value.(string)
		if !ok {
			return []types.Violation{{
				Path:    field.Path,
				Kind:    types.TypeMismatch,
				Message: fmt.Sprintf("field %s is %v (expected one of: %s)", field.Path, value, strings.Join(field.Enum, ", ")),
			}}
		}
		if !field.EnumSet().Has(s) {
			return []types.Violation{{
				Path:    field.Path,
				Kind:    types.InvalidEnumValue,
				Message: fmt.Sprintf("field %s is %q (must be one of: %s)", field.Path, s, strings.Join(field.Enum, ", ")),
			}}
		}
	}

	return nil
}

func checkBounds(field schema.FieldDef, n int64) []types.Violation {
	if field.Format == schema.FormatPort {
		if errs := validation.IsValidPortNum(int(n)); len(errs) > 0 {
			return []types.Violation{{
				Path:    field.Path,
				Kind:    types.OutOfRange,
				Message: fmt.Sprintf("field %s is %d: %s", field.Path, n, strings.Join(errs, "; ")),
			}}
		}
		return nil
	}
	if field.Min != nil && n < *field.Min {
		return []types.Violation{{
			Path:    field.Path,
			Kind:    types.OutOfRange,
			Message: fmt.Sprintf("field %s is %d (must be >= %d)", field.Path, n, *field.Min),
		}}
	}
	if field.Max != nil && n > *field.Max {
		return []types.Violation{{
			Path:    field.Path,
			Kind:    types.OutOfRange,
			Message: fmt.Sprintf("field %s is %d (must be <= %d)", field.Path, n, *field.Max),
		}}
	}
	return nil
}

func checkRule(rule schema.CrossFieldRule, working map[string]interface{}) []types.Violation {
	if !schema.Truthy(working[rule.Gate]) {
		return nil
	}

	var violations []types.Violation
	for _, path := range rule.Requires {
		value, present := working[path]
		s, isString := value.(string)
		if present && (!isString || s != "") {
			continue
		}
		message := rule.Message
		if message == "" {
			message = fmt.Sprintf("field %s must be set while %s is true", path, rule.Gate)
		}
		violations = append(violations, types.Violation{
			Path:    path,
			Kind:    types.CrossFieldViolation,
			Message: message,
		})
	}
	return violations
}

func asInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

func (e *Engine) logValidation(kindID string, accepted bool, violations int, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.validationLog = append(e.validationLog, ValidationLogEntry{
		KindID:     kindID,
		Accepted:   accepted,
		Violations: violations,
		Timestamp:  time.Now(),
		Duration:   duration,
	})

	// Keep only last 1000 entries
	if len(e.validationLog) > 1000 {
		e.validationLog = e.validationLog[len(e.validationLog)-1000:]
	}
}

func (e *Engine) Stats() map[string]interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()

	total := len(e.validationLog)
	accepted := 0
	var totalDuration time.Duration

	for _, entry := range e.validationLog {
		if entry.Accepted {
			accepted++
		}
		totalDuration += entry.Duration
	}

	avgDuration := time.Duration(0)
	if total > 0 {
		avgDuration = totalDuration / time.Duration(total)
	}

	return map[string]interface{}{
		"total_validations": total,
		"accepted":          accepted,
		"rejected":          total - accepted,
		"avg_duration_ms":   avgDuration.Milliseconds(),
		"registered_kinds":  len(e.registry.Kinds()),
	}
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Suppress some noisy logs
	if os.Getenv("DEBUG") == "" {
		log.SetOutput(os.Stdout)
	}
}
