// Package render turns canonical records back into wire documents. Key
// order is fixed by schema declaration order, not by input order, and the
// schema's fixed injections (e.g. the ingress-class annotation) are written
// here so UI-displayed and submitted documents cannot diverge.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/aonescu/torii/internal/schema"
	"github.com/aonescu/torii/internal/types"
)

// Serialize renders an accepted record as a YAML document.
func Serialize(rec *types.CanonicalRecord, kind *schema.RegisteredKind) (string, error) {
	if rec.KindID() != kind.ID {
		return "", fmt.Errorf("record kind %s does not match schema kind %s", rec.KindID(), kind.ID)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}

	for _, field := range kind.Fields {
		value, present := rec.Get(field.Path)
		if !present {
			continue
		}
		node, err := scalarNode(value)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", field.Path, err)
		}
		setPath(root, strings.Split(field.Path, "."), node)
	}

	for _, inj := range kind.Injections {
		if inj.EnabledBy != "" {
			// Falsy gates are pruned at promotion, so absence means disabled.
			gate, present := rec.Get(inj.EnabledBy)
			if !present || !schema.Truthy(gate) {
				continue
			}
		}
		entry, err := scalarNode(inj.Value)
		if err != nil {
			return "", err
		}
		mapping := ensureMapping(root, strings.Split(inj.Path, "."))
		appendEntry(mapping, inj.Key, entry)
	}

	out, err := yaml.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(out), nil
}

// Document renders the record as a nested object, for JSON API responses.
func Document(rec *types.CanonicalRecord, kind *schema.RegisteredKind) (map[string]interface{}, error) {
	if rec.KindID() != kind.ID {
		return nil, fmt.Errorf("record kind %s does not match schema kind %s", rec.KindID(), kind.ID)
	}

	doc := make(map[string]interface{})
	for _, field := range kind.Fields {
		value, present := rec.Get(field.Path)
		if !present {
			continue
		}
		if err := unstructured.SetNestedField(doc, value, strings.Split(field.Path, ".")...); err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Path, err)
		}
	}
	for _, inj := range kind.Injections {
		if inj.EnabledBy != "" {
			if _, present := rec.Get(inj.EnabledBy); !present {
				continue
			}
		}
		annotations := map[string]string{inj.Key: inj.Value}
		if err := unstructured.SetNestedStringMap(doc, annotations, strings.Split(inj.Path, ".")...); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func scalarNode(value interface{}) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch v := value.(type) {
	case string:
		n.Tag = "!!str"
		n.Value = v
	case bool:
		n.Tag = "!!bool"
		n.Value = strconv.FormatBool(v)
	case int64:
		n.Tag = "!!int"
		n.Value = strconv.FormatInt(v, 10)
	case float64:
		n.Tag = "!!float"
		n.Value = strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return nil, fmt.Errorf("unsupported scalar %T", value)
	}
	return n, nil
}

// setPath writes a leaf node under a dotted path, creating intermediate
// mappings in first-encounter order.
func setPath(root *yaml.Node, segments []string, leaf *yaml.Node) {
	mapping := ensureMapping(root, segments[:len(segments)-1])
	appendEntry(mapping, segments[len(segments)-1], leaf)
}

func ensureMapping(root *yaml.Node, segments []string) *yaml.Node {
	current := root
	for _, seg := range segments {
		next := childMapping(current, seg)
		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode}
			appendEntry(current, seg, next)
		}
		current = next
	}
	return current
}

func childMapping(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func appendEntry(mapping *yaml.Node, key string, value *yaml.Node) {
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	mapping.Content = append(mapping.Content, keyNode, value)
}
