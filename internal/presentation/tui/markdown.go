package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/locator"
)

// GroupsMarkdown renders a recipe's groups as a markdown document, in priority order.
// The output is deterministic: field keys are sorted.
func GroupsMarkdown(recipeID domain.RecipeID, groups []domain.Group) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Recipe %s\n\n", recipeID)

	if len(groups) == 0 {
		sb.WriteString("_No condition groups: every action runs unconditionally._\n")
		return sb.String()
	}

	for _, g := range locator.SortByPriority(groups) {
		fmt.Fprintf(&sb, "## Group `%s` (priority %d)\n\n", g.ID(), g.Priority())
		fmt.Fprintf(&sb, "- **Mode:** %s\n", g.Mode())
		fmt.Fprintf(&sb, "- **Parent:** %s\n", parentText(g.Parent()))
		fmt.Fprintf(&sb, "- **Actions:** %s\n\n", actionsText(g.ActionIDs()))

		if g.IsVacuous() {
			sb.WriteString("_No conditions: gated actions always run._\n\n")
			continue
		}

		sb.WriteString("| # | Condition | Integration | Code | Fields |\n")
		sb.WriteString("|---|-----------|-------------|------|--------|\n")
		for i, c := range g.Conditions() {
			backup := c.BackupInfo()
			fmt.Fprintf(&sb, "| %d | %s | %s | `%s.%s` | %s |\n",
				i+1,
				cell(backup.DynamicName),
				cell(backup.IntegrationName),
				c.IntegrationCode(), c.ConditionCode(),
				fieldsText(c.Fields()),
			)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func parentText(p domain.ParentRef) string {
	switch {
	case !p.IsSet():
		return "none"
	case p.IsPlaceholder():
		return fmt.Sprintf("pending `%s`", p.Label())
	default:
		return fmt.Sprintf("`%s`", p)
	}
}

func actionsText(ids []domain.ActionID) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ", ")
}

func fieldsText(fields map[string]any) string {
	if len(fields) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("`%s=%v`", k, fields[k]))
	}
	return cell(strings.Join(parts, " "))
}

// cell keeps a value inside its markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
