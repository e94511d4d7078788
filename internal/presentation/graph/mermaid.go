package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/locator"
)

// GraphOverlay contains highlight data to visualize on the graph.
type GraphOverlay struct {
	// Action highlights every group gating this action.
	Action domain.ActionID
}

// GenerateMermaid produces a Mermaid flowchart of a recipe's groups.
// It applies semantic styling:
// - ALL group: [Rectangle]
// - ANY group: {{Hexagon}}
// - Group without conditions: ([Stadium])
// Parent links are solid arrows; gated actions hang off dotted arrows.
// Groups are emitted in priority order.
func GenerateMermaid(groups []domain.Group, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	actions := make(map[domain.ActionID]struct{})
	for _, g := range locator.SortByPriority(groups) {
		safeID := sanitizeMermaidID(g.ID().String())

		opener, closer := "[", "]"
		switch {
		case g.IsVacuous():
			opener, closer = "([", "])"
		case g.Mode().IsAny():
			opener, closer = "{{", "}}"
		}

		sb.WriteString(fmt.Sprintf("    %s%s\"%s <br/> %s · %d condition(s)\"%s\n",
			safeID, opener, g.ID(), g.Mode(), g.Len(), closer))

		if parentID, ok := g.Parent().GroupID(); ok {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(parentID.String()), safeID))
		} else if g.Parent().IsPlaceholder() {
			// Unresolved parents stay visible as dangling references.
			sb.WriteString(fmt.Sprintf("    %s -. pending .-> %s\n", sanitizeMermaidID(g.Parent().Label()), safeID))
		}

		for _, a := range g.ActionIDs() {
			actions[a] = struct{}{}
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", safeID, actionNodeID(a)))
		}
	}

	for _, a := range sortedActions(actions) {
		sb.WriteString(fmt.Sprintf("    %s((\"action %d\"))\n", actionNodeID(a), a))
	}

	// Apply Overlay Styles
	if overlay != nil && overlay.Action.Valid() {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef gating fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for _, g := range locator.GroupsForAction(groups, overlay.Action) {
			sb.WriteString(fmt.Sprintf("    class %s gating;\n", sanitizeMermaidID(g.ID().String())))
		}
		if _, ok := actions[overlay.Action]; ok {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", actionNodeID(overlay.Action)))
		}
	}

	return sb.String()
}

func actionNodeID(id domain.ActionID) string {
	return "action_" + id.String()
}

func sortedActions(set map[domain.ActionID]struct{}) []domain.ActionID {
	out := make([]domain.ActionID, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
