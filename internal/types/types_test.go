package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDraftRecord_FieldsIsACopy(t *testing.T) {
	draft := NewDraftRecord("CoreUI")
	draft.Set("spec.image", "nginx:1.0")

	fields := draft.Fields()
	fields["spec.image"] = "tampered"

	v, _ := draft.Get("spec.image")
	assert.Equal(t, "nginx:1.0", v)
}

func TestCanonicalRecord_DefensiveCopy(t *testing.T) {
	source := map[string]interface{}{"spec.image": "nginx:1.0", "spec.replicas": int64(1)}
	rec := NewCanonicalRecord("CoreUI", source)

	source["spec.image"] = "tampered"
	v, _ := rec.Get("spec.image")
	assert.Equal(t, "nginx:1.0", v)

	out := rec.Fields()
	out["spec.replicas"] = int64(99)
	v, _ = rec.Get("spec.replicas")
	assert.Equal(t, int64(1), v)
}

func TestValidationResult_NeverBoth(t *testing.T) {
	accepted := Accepted(NewCanonicalRecord("CoreUI", map[string]interface{}{}))
	assert.True(t, accepted.IsAccepted())
	assert.Empty(t, accepted.Violations)

	rejected := Rejected([]Violation{{Path: "spec.image", Kind: MissingField, Message: "missing"}})
	assert.False(t, rejected.IsAccepted())
	assert.Nil(t, rejected.Canonical)
}
