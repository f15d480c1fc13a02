package visual

import (
	"strings"
)

// headers are the Mermaid diagram declarations accepted as the first
// statement of a source.
var headers = map[string]bool{
	"graph":              true,
	"flowchart":          true,
	"flowchart-v2":       true,
	"flowchart-elk":      true,
	"classDiagram":       true,
	"classDiagram-v2":    true,
	"stateDiagram":       true,
	"stateDiagram-v2":    true,
	"sequenceDiagram":    true,
	"erDiagram":          true,
	"mindmap":            true,
	"journey":            true,
	"gantt":              true,
	"pie":                true,
	"gitGraph":           true,
	"timeline":           true,
	"quadrantChart":      true,
	"requirement":        true,
	"requirementDiagram": true,
	"info":               true,
	"C4Context":          true,
	"C4Container":        true,
	"C4Component":        true,
	"C4Dynamic":          true,
	"C4Deployment":       true,
	"block-beta":         true,
	"sankey-beta":        true,
	"xychart-beta":       true,
	"packet-beta":        true,
	"architecture-beta":  true,
	"radar-beta":         true,
	"treemap-beta":       true,
	"kanban":             true,
}

// Header returns the diagram declaration of a Mermaid source: the first
// word of the first line that is neither blank nor a %% comment or
// directive. A leading --- frontmatter block is skipped. ok is false when
// no known declaration is found.
func Header(source string) (keyword string, ok bool) {
	lines := strings.Split(source, "\n")
	lines = skipFrontmatter(lines)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		keyword = strings.Fields(line)[0]
		return keyword, headers[keyword]
	}
	return "", false
}

// skipFrontmatter drops a YAML block fenced by --- lines at the top of the
// source. An unclosed block is left in place.
func skipFrontmatter(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) || strings.TrimSpace(lines[start]) != "---" {
		return lines
	}
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return lines[i+1:]
		}
	}
	return lines
}
