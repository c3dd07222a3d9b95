package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aonescu/torii/internal/schema"
	"github.com/aonescu/torii/internal/schema/kinds"
)

func coreUI(t *testing.T) *schema.RegisteredKind {
	t.Helper()
	r := schema.NewRegistry()
	require.NoError(t, kinds.RegisterBuiltin(r))
	kind, err := r.Lookup(kinds.CoreUIKind)
	require.NoError(t, err)
	return kind
}

func TestNormalize_CoercesFormStrings(t *testing.T) {
	kind := coreUI(t)

	draft := Normalize(map[string]interface{}{
		"metadata.name":        "demo",
		"spec.image":           "nginx:1.0",
		"spec.replicas":        "3",
		"spec.service.port":    "8080",
		"spec.ingress.enabled": "false",
	}, kind)

	replicas, ok := draft.Get("spec.replicas")
	require.True(t, ok)
	assert.Equal(t, int64(3), replicas)

	port, ok := draft.Get("spec.service.port")
	require.True(t, ok)
	assert.Equal(t, int64(8080), port)

	enabled, ok := draft.Get("spec.ingress.enabled")
	require.True(t, ok)
	assert.Equal(t, false, enabled)
}

func TestNormalize_FillsDefaults(t *testing.T) {
	kind := coreUI(t)

	draft := Normalize(map[string]interface{}{
		"metadata.name": "demo",
		"spec.image":    "nginx:1.0",
	}, kind)

	namespace, _ := draft.Get("metadata.namespace")
	assert.Equal(t, "default", namespace)

	replicas, _ := draft.Get("spec.replicas")
	assert.Equal(t, int64(1), replicas)

	serviceType, _ := draft.Get("spec.service.type")
	assert.Equal(t, "ClusterIP", serviceType)
}

func TestNormalize_DropsUnknownPathsWithWarning(t *testing.T) {
	kind := coreUI(t)

	draft := Normalize(map[string]interface{}{
		"metadata.name": "demo",
		"spec.bogus":    "x",
	}, kind)

	_, present := draft.Get("spec.bogus")
	assert.False(t, present)

	warnings := draft.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "spec.bogus", warnings[0].Path)
}

func TestNormalize_GatedFieldsOmittedWhenDisabled(t *testing.T) {
	kind := coreUI(t)

	draft := Normalize(map[string]interface{}{
		"metadata.name":         "demo",
		"spec.image":            "nginx:1.0",
		"spec.ingress.enabled":  "false",
		"spec.ingress.host":     "x.example.com",
		"spec.ingress.path":     "/",
		"spec.ingress.pathType": "Prefix",
	}, kind)

	for _, path := range []string{"spec.ingress.host", "spec.ingress.path", "spec.ingress.pathType"} {
		_, present := draft.Get(path)
		assert.False(t, present, "expected %s to be omitted while ingress is disabled", path)
	}
}

func TestNormalize_GatedDefaultsWhenEnabled(t *testing.T) {
	kind := coreUI(t)

	draft := Normalize(map[string]interface{}{
		"metadata.name":        "demo",
		"spec.image":           "nginx:1.0",
		"spec.ingress.enabled": true,
		"spec.ingress.host":    "x.example.com",
	}, kind)

	path, ok := draft.Get("spec.ingress.path")
	require.True(t, ok)
	assert.Equal(t, "/", path)

	pathType, ok := draft.Get("spec.ingress.pathType")
	require.True(t, ok)
	assert.Equal(t, "Prefix", pathType)
}

func TestNormalize_EmptyStringIsOmission(t *testing.T) {
	kind := coreUI(t)

	draft := Normalize(map[string]interface{}{
		"metadata.name": "demo",
		"spec.image":    "",
	}, kind)

	_, present := draft.Get("spec.image")
	assert.False(t, present)
}

func TestCoerce_LeavesUnconvertibleValues(t *testing.T) {
	field := schema.FieldDef{Path: "spec.replicas", Type: schema.IntegerField}

	// The validator, not the normalizer, reports the mismatch.
	assert.Equal(t, "lots", Coerce("lots", field))
	assert.Equal(t, 1.5, Coerce(1.5, field))
	assert.Equal(t, int64(2), Coerce(2.0, field))
}
