package evaluate

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render writes the report as a terminal table, or as a Markdown table when markdown is set
func Render(w io.Writer, r Report, markdown bool) error {
	t := table.NewWriter()
	if !markdown {
		t.SetStyle(table.StyleLight)
	}

	t.AppendHeader(table.Row{"label", "precision", "recall", "f1", "support"})
	for _, l := range r.Labels {
		t.AppendRow(row(l.Label, l.Metrics))
	}
	t.AppendFooter(row("micro avg", r.Micro))
	t.AppendFooter(row("macro avg", r.Macro))

	cols := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft}}
	for i := 2; i <= 5; i++ {
		cols = append(cols, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	t.SetColumnConfigs(cols)

	out := t.Render()
	if markdown {
		out = t.RenderMarkdown()
	}

	_, err := fmt.Fprintf(w, "Evaluation against %q (%d records)\n%s\n", r.GoldField, r.Samples, out)
	return err
}

func row(label string, m Metrics) table.Row {
	return table.Row{
		label,
		fmt.Sprintf("%.3f", m.Precision),
		fmt.Sprintf("%.3f", m.Recall),
		fmt.Sprintf("%.3f", m.F1),
		m.Support,
	}
}
