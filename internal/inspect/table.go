package inspect

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TableOptions adjusts RenderTable output.
type TableOptions struct {
	// Color enables the colored style; callers turn it off when stdout is
	// not a terminal.
	Color bool
}

// RenderTable renders the same data as Render as a bordered table.
func RenderTable(src Source, opts TableOptions) (string, error) {
	entries, err := Collect(src)
	if err != nil {
		return "", err
	}
	return FormatTable(entries, opts), nil
}

// FormatTable renders already collected entries.
func FormatTable(entries []Entry, opts TableOptions) string {
	title := cases.Title(language.Und)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if opts.Color {
		style := table.StyleColoredDark
		style.Box = table.StyleBoxRounded
		tw.SetStyle(style)
	}
	tw.AppendHeader(table.Row{"Name", "Kind", "State", "Value"})
	for _, entry := range entries {
		tw.AppendRow(table.Row{entry.Name, title.String(entry.Kind.String()), entry.Detail(), entry.Repr})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 60},
	})
	return tw.Render()
}
