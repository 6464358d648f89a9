package report

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// RenderSheet renders a sheet as a text table. Numeric cells are right
// aligned.
func RenderSheet(s Sheet, colorize bool) string {
	columns := len(s.Columns)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if colorize {
		tw.SetStyle(table.StyleColoredBright)
	} else {
		tw.SetStyle(table.StyleRounded)
	}
	tw.SetTitle(s.Name)

	header := make(table.Row, columns)
	for i, c := range s.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	numeric := make([]bool, columns)
	for _, row := range s.Rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i >= len(row) {
				r[i] = ""
				continue
			}
			switch row[i].(type) {
			case int, float64:
				numeric[i] = true
			}
			r[i] = row[i]
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if numeric[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// Totals describes the whole accession for the summary footer.
type Totals struct {
	Files     int
	Rows      int
	SizeBytes uint64
	Workbook  string
}

// WriteSummary prints the sheet as a table followed by accession totals.
func WriteSummary(w io.Writer, s Sheet, t Totals) error {
	_, err := fmt.Fprintf(w, "%s\n%s files (%s rows), %s\nReport: %s\n",
		RenderSheet(s, shouldColorize(w)),
		humanize.Comma(int64(t.Files)),
		humanize.Comma(int64(t.Rows)),
		humanize.Bytes(t.SizeBytes),
		t.Workbook,
	)
	return err
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
