package convert

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/maruel/natural"

	"hfc/scene"
)

// SummaryValues is the data made available to the summary template.
type SummaryValues struct {
	Source      string
	Output      string
	Elapsed     string
	Nodes       int
	Images      int
	AssetStats  []StatLine
	Degraded    int
	DiagCounts  []StatLine
	Diagnostics []Diagnostic
}

// StatLine is one name/count pair, pre-sorted for stable output.
type StatLine struct {
	Name  string
	Count int
}

const summaryTemplate = `Conversion summary for {{ .Source }}
  output:   {{ .Output }}
  elapsed:  {{ .Elapsed }}
  nodes:    {{ .Nodes }}
  images:   {{ .Images }}
{{- if .AssetStats }}
  assets:
{{- range .AssetStats }}
    {{ printf "%-12s %d" .Name .Count }}
{{- end }}
{{- end }}
{{- if .Degraded }}
  degradations: {{ .Degraded }}
{{- range .DiagCounts }}
    {{ printf "%-12s %d" .Name .Count }}
{{- end }}
{{- range .Diagnostics }}
    [{{ .Category }}] {{ .Node }}: {{ .Message }}
{{- end }}
{{- else }}
  degradations: none
{{- end }}
`

// Summary renders the human-readable conversion report stored next to the log
// and in the debug report archive.
func Summary(src, out string, elapsed time.Duration, doc *scene.Document, assetStats map[string]int, diag *Diagnostics) (string, error) {
	tmpl, err := template.New("summary").Funcs(sprig.FuncMap()).Parse(summaryTemplate)
	if err != nil {
		return "", fmt.Errorf("unable to parse summary template: %w", err)
	}

	values := SummaryValues{
		Source:      src,
		Output:      out,
		Elapsed:     elapsed.Round(time.Millisecond).String(),
		Nodes:       countNodes(doc.Root),
		Images:      len(doc.Images()),
		AssetStats:  statLines(assetStats),
		Degraded:    diag.Len(),
		DiagCounts:  statLines(diag.Counts()),
		Diagnostics: diag.Entries(),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func countNodes(n *scene.Node) int {
	if n == nil {
		return 0
	}
	count := 1
	for _, c := range n.Children {
		count += countNodes(c)
	}
	return count
}

func statLines(m map[string]int) []StatLine {
	out := make([]StatLine, 0, len(m))
	for k, v := range m {
		if v == 0 {
			continue
		}
		out = append(out, StatLine{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return natural.Less(out[i].Name, out[j].Name) })
	return out
}
