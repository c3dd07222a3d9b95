package kinds

import "github.com/aonescu/torii/internal/schema"

const (
	CoreUIKind       = "CoreUI"
	CoreUIAPIVersion = "core.example.com/v1"

	ingressClassAnnotation = "kubernetes.io/ingress.class"
	ingressClassValue      = "nginx"
)

// CoreUI returns the built-in CoreUI resource kind. Field declaration order
// here fixes both violation ordering and serialized key order.
func CoreUI() schema.Kind {
	return schema.Kind{
		ID:         CoreUIKind,
		APIVersion: CoreUIAPIVersion,
		Fields: []schema.FieldDef{
			{Path: "apiVersion", Type: schema.StringField, Required: true, Default: CoreUIAPIVersion},
			{Path: "kind", Type: schema.EnumField, Required: true, Default: CoreUIKind, Enum: []string{CoreUIKind}},
			{Path: "metadata.name", Type: schema.StringField, Format: schema.FormatDNS1123, Required: true},
			{Path: "metadata.namespace", Type: schema.StringField, Format: schema.FormatDNS1123, Default: "default"},
			{Path: "spec.replicas", Type: schema.IntegerField, Required: true, Default: int64(1), Min: i64(1)},
			{Path: "spec.image", Type: schema.StringField, Required: true},
			{Path: "spec.service.type", Type: schema.EnumField, Default: "ClusterIP", Enum: []string{"ClusterIP", "NodePort", "LoadBalancer"}},
			{Path: "spec.service.port", Type: schema.IntegerField, Format: schema.FormatPort, Default: int64(80)},
			{Path: "spec.service.targetPort", Type: schema.IntegerField, Format: schema.FormatPort, Default: int64(8080)},
			{Path: "spec.ingress.enabled", Type: schema.BooleanField, Default: false},
			{Path: "spec.ingress.host", Type: schema.StringField, EnabledBy: "spec.ingress.enabled"},
			{Path: "spec.ingress.path", Type: schema.StringField, Default: "/", EnabledBy: "spec.ingress.enabled"},
			{Path: "spec.ingress.pathType", Type: schema.EnumField, Default: "Prefix", Enum: []string{"Prefix", "Exact"}, EnabledBy: "spec.ingress.enabled"},
		},
		Rules: []schema.CrossFieldRule{
			{
				ID:       "ingress_requires_host_and_path",
				Gate:     "spec.ingress.enabled",
				Requires: []string{"spec.ingress.host", "spec.ingress.path"},
				Message:  "ingress host and path must be set when ingress is enabled",
			},
		},
		Injections: []schema.Injection{
			{
				Path:      "spec.ingress.annotations",
				Key:       ingressClassAnnotation,
				Value:     ingressClassValue,
				EnabledBy: "spec.ingress.enabled",
			},
		},
	}
}

// Builtin returns every kind shipped with the service.
func Builtin() []schema.Kind {
	return []schema.Kind{CoreUI()}
}

// RegisterBuiltin registers the built-in kinds; called once at startup.
func RegisterBuiltin(r *schema.Registry) error {
	for _, kind := range Builtin() {
		if err := r.Register(kind); err != nil {
			return err
		}
	}
	return nil
}

func i64(v int64) *int64 {
	return &v
}
