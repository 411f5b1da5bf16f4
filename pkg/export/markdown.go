package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"treescope/pkg/analysis"
	"treescope/pkg/hierarchy"
	"treescope/pkg/model"
)

// GenerateMarkdown creates a markdown outline of the entity tree: a shape
// summary, a mermaid diagram, and the full nested listing with URLs and
// descriptions.
func GenerateMarkdown(root *model.Entity, title string) (string, error) {
	if root == nil {
		return "", fmt.Errorf("no document to export")
	}
	if title == "" {
		title = root.Name
	}

	tree := hierarchy.Build(root)
	s := analysis.Summarize(tree)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC1123)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Entities**: %d\n", s.Nodes))
	sb.WriteString(fmt.Sprintf("- **Leaves**: %d\n", s.Leaves))
	sb.WriteString(fmt.Sprintf("- **Max depth**: %d\n", s.MaxDepth))
	sb.WriteString(fmt.Sprintf("- **Mean branching**: %.2f\n", s.BranchingMean))
	sb.WriteString(fmt.Sprintf("- **With URLs**: %d\n\n", s.URLCount))

	sb.WriteString("## Structure\n\n")
	sb.WriteString("```mermaid\ngraph LR\n")
	for i := 0; i < tree.Len(); i++ {
		n := tree.Node(i)
		sb.WriteString(fmt.Sprintf("  n%d[\"%s\"]\n", n.ID, escapeMermaid(n.Name)))
		if n.Parent != hierarchy.NoParent {
			sb.WriteString(fmt.Sprintf("  n%d --> n%d\n", n.Parent, n.ID))
		}
	}
	sb.WriteString("```\n\n")

	sb.WriteString("## Entities\n\n")
	writeOutline(&sb, tree, 0, 0)

	return sb.String(), nil
}

// mermaidEscaper rewrites characters that terminate or restructure a
// quoted mermaid label as mermaid entities. '#' is included so literal
// entity text in a name renders as typed.
var mermaidEscaper = strings.NewReplacer(
	"#", "#35;",
	`"`, "#quot;",
	"`", "#96;",
	"[", "#91;",
	"]", "#93;",
	"<", "#lt;",
	">", "#gt;",
)

func escapeMermaid(s string) string {
	return mermaidEscaper.Replace(s)
}

func writeOutline(sb *strings.Builder, tree *hierarchy.Tree, i, indent int) {
	n := tree.Node(i)
	pad := strings.Repeat("  ", indent)

	if n.URL != "" {
		sb.WriteString(fmt.Sprintf("%s- [%s](%s)", pad, n.Name, n.URL))
	} else {
		sb.WriteString(fmt.Sprintf("%s- %s", pad, n.Name))
	}
	if n.Description != "" {
		sb.WriteString(": " + n.Description)
	}
	sb.WriteString("\n")

	for _, c := range n.Children {
		writeOutline(sb, tree, c, indent+1)
	}
}

// SaveMarkdownToFile writes the outline report to a file.
func SaveMarkdownToFile(root *model.Entity, filename string) error {
	md, err := GenerateMarkdown(root, "")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(md), 0644)
}
