// Package parse turns raw YAML text into a draft record. Only document
// syntax is judged here; schema mismatches are deferred to the validator so
// both input paths share one error taxonomy.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aonescu/torii/internal/types"
)

// SyntaxError reports malformed document text. Column is 0 when the
// underlying scanner does not provide one.
type SyntaxError struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (e *SyntaxError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Message)
}

var lineRe = regexp.MustCompile(`line (\d+):`)

// Parse decodes text into a DraftRecord for the given kind. It fails with
// *SyntaxError when the text cannot be parsed into a mapping at all; a
// parsed mapping with an unrecognized shape (missing apiVersion, unknown
// keys) still yields a draft.
func Parse(text string, kindID string) (*types.DraftRecord, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, syntaxErrorFrom(err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, &SyntaxError{Line: 1, Column: 1, Message: "document is empty, expected a mapping"}
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &SyntaxError{
			Line:    doc.Line,
			Column:  doc.Column,
			Message: "top-level document is not a mapping",
		}
	}

	var fields map[string]interface{}
	if err := doc.Decode(&fields); err != nil {
		return nil, syntaxErrorFrom(err)
	}

	draft := types.NewDraftRecord(kindID)
	flatten("", fields, draft)
	return draft, nil
}

func syntaxErrorFrom(err error) *SyntaxError {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")

	line := 1
	if m := lineRe.FindStringSubmatch(msg); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			line = n
		}
		msg = strings.TrimSpace(lineRe.ReplaceAllString(msg, ""))
	}
	return &SyntaxError{Line: line, Column: 0, Message: msg}
}

// flatten walks nested mappings and records leaf values under dotted paths.
// Integers are normalized to int64 so downstream deep copies stay
// JSON-compatible. Explicit nulls are treated as omissions.
func flatten(prefix string, value interface{}, draft *types.DraftRecord) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, child := range v {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			flatten(path, child, draft)
		}
	case int:
		draft.Set(prefix, int64(v))
	case uint64:
		draft.Set(prefix, int64(v))
	case nil:
		// "key: null" carries no value; the omit-key contract applies.
	default:
		draft.Set(prefix, v)
	}
}
