package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mediarouter/internal/router"
)

// renderOptionsTable renders a registry's options as the Handler/Format/
// MIME/From/To table `cache list` prints.
func renderOptionsTable(opts []router.Option) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Handler", "Format", "MIME", "From", "To"})

	for _, opt := range opts {
		tw.AppendRow(table.Row{
			opt.Handler.Name(),
			opt.Format.Name,
			opt.Format.MIME,
			yesNo(opt.Format.From),
			yesNo(opt.Format.To),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
