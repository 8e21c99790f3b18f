// Package preview prints a composition instead of rendering it.
package preview

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forPelevin/supercut/internal/types"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// Write prints one line per match, or a table when w is a terminal.
func Write(w io.Writer, c types.Composition) error {
	var out string
	if isTerminal(w) {
		out = Table(c) + "\n"
	} else {
		out = Lines(c)
	}
	_, err := io.WriteString(w, out)
	return err
}

// Lines renders "<start> to <end>:\t<text>" per match.
func Lines(c types.Composition) string {
	var b strings.Builder
	for _, m := range c {
		fmt.Fprintf(&b, "%s to %s:\t%s\n", fmtSec(m.Start), fmtSec(m.End), m.Text)
	}
	return b.String()
}

func Table(c types.Composition) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "File", "Start", "End", "Text"})
	for i, m := range c {
		tw.AppendRow(table.Row{i + 1, filepath.Base(m.File), fmtSec(m.Start), fmtSec(m.End), m.Text})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, WidthMax: 60},
	})
	return tw.Render()
}

func fmtSec(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
