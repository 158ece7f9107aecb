package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/olekukonko/tablewriter"

	"sql-orchestrator/internal/dataset"
	"sql-orchestrator/internal/db"
)

const nullCell = "NULL"

// renderDataSet prints every table in psql style, one after another.
func renderDataSet(w io.Writer, ds *dataset.DataSet) {
	if ds.Len() == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}

	for i, t := range ds.Tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		n := t.RowCount()
		fmt.Fprintf(w, "Table %s (%s %s)\n", t.Name, humanize.Comma(int64(n)), english.PluralWord(n, "row", ""))

		header := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			header = append(header, c.Name)
		}
		rows := make([][]string, 0, n)
		for _, r := range t.Rows {
			cells := make([]string, 0, len(r.Values))
			for _, v := range r.Values {
				cells = append(cells, cell(v))
			}
			rows = append(rows, cells)
		}
		renderTable(w, header, rows)
	}
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.Render()
}

func cell(v any) string {
	s := db.Stringify(v)
	if s == nil {
		return nullCell
	}
	return fmt.Sprint(s)
}
