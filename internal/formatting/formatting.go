package formatting

import (
	"fmt"
	"strings"

	"github.com/aonescu/torii/internal/types"
)

// FormatViolation renders one violation as a single field-scoped line.
func FormatViolation(v types.Violation) string {
	return fmt.Sprintf("%s [%s]: %s", v.Path, v.Kind, v.Message)
}

func FormatViolations(violations []types.Violation) []string {
	lines := make([]string, 0, len(violations))
	for _, v := range violations {
		lines = append(lines, FormatViolation(v))
	}
	return lines
}

func GenerateSummary(violations []types.Violation) map[string]interface{} {
	summary := map[string]interface{}{
		"total":   len(violations),
		"by_kind": make(map[string]int),
		"fields":  make([]string, 0, len(violations)),
	}

	byKind := summary["by_kind"].(map[string]int)
	fields := summary["fields"].([]string)
	for _, v := range violations {
		byKind[string(v.Kind)]++
		fields = append(fields, v.Path)
	}
	summary["fields"] = fields

	return summary
}

// FormatExplanation renders one violation as a sectioned, human-readable
// block for terminal display.
func FormatExplanation(v types.Violation) string {
	var output strings.Builder

	output.WriteString("\nFIELD\n")
	output.WriteString("────────────────────────\n")
	output.WriteString(fmt.Sprintf("%s\n\n", v.Path))

	output.WriteString("PROBLEM\n")
	output.WriteString("────────────────────────\n")
	output.WriteString(fmt.Sprintf("%s: %s\n\n", v.Kind, v.Message))

	output.WriteString("NEXT ACTION\n")
	output.WriteString("────────────────────────\n")
	output.WriteString(fmt.Sprintf("Edit %s and validate again\n", v.Path))

	return output.String()
}

func FormatMultipleExplanations(violations []types.Violation) []string {
	explanations := make([]string, 0, len(violations))
	for _, v := range violations {
		explanations = append(explanations, FormatExplanation(v))
	}
	return explanations
}
