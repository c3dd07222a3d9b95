// Package normalize converts structured form input into a draft record.
package normalize

import (
	"sort"
	"strconv"

	"github.com/aonescu/torii/internal/schema"
	"github.com/aonescu/torii/internal/types"
)

// Normalize builds a DraftRecord from a path-keyed map of raw form values.
// Unknown paths are dropped with a warning, never an error. Gated fields
// are included only while their gating field is truthy; otherwise they are
// omitted entirely, never emitted as null placeholders. Defaults fill in
// for omitted optional fields.
func Normalize(values map[string]interface{}, kind *schema.RegisteredKind) *types.DraftRecord {
	draft := types.NewDraftRecord(kind.ID)

	// Deterministic iteration so warning order is stable.
	paths := make([]string, 0, len(values))
	for p := range values {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		value := values[path]

		field, known := kind.FieldAt(path)
		if !known {
			draft.AddWarning(path, "unknown field dropped")
			continue
		}
		if field.EnabledBy != "" && !schema.Truthy(values[field.EnabledBy]) {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			// An untouched form input is an omission, not an empty value.
			continue
		}
		draft.Set(path, Coerce(value, field))
	}

	fillDefaults(draft, kind)
	return draft
}

func fillDefaults(draft *types.DraftRecord, kind *schema.RegisteredKind) {
	for _, field := range kind.Fields {
		if _, present := draft.Get(field.Path); present {
			continue
		}
		if field.EnabledBy != "" {
			gate, _ := draft.Get(field.EnabledBy)
			if !schema.Truthy(gate) {
				continue
			}
		}
		if field.Default != nil {
			draft.Set(field.Path, field.Default)
		}
	}
}

// Coerce converts a raw form value to the field's declared type when the
// conversion is lossless. Values that do not convert are kept as supplied
// so the validator can report a TypeMismatch for them.
func Coerce(value interface{}, field schema.FieldDef) interface{} {
	switch field.Type {
	case schema.IntegerField:
		switch v := value.(type) {
		case int:
			return int64(v)
		case int64:
			return v
		case float64:
			if v == float64(int64(v)) {
				return int64(v)
			}
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
	case schema.BooleanField:
		switch v := value.(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}
	}
	return value
}
