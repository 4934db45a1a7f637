package style

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// NewTableWriter returns a writer for terminal tables that mirrors its
// output to w. Rounded boxes with alternating row shades.
func NewTableWriter(w io.Writer) table.Writer {
	style := table.StyleRounded
	style.Color.Header = text.Colors{text.FgHiWhite}
	style.Color.Row = text.Colors{text.FgHiWhite}
	style.Color.RowAlternate = text.Colors{text.FgWhite}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(style)
	return t
}
