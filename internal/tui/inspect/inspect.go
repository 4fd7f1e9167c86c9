package inspect

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"mkmbr/internal/mbr"
)

type viewer struct {
	app    *tview.Application
	grid   *tview.Grid
	header *tview.TextView
	table  *tview.Table
	footer *tview.TextView

	path string
	ents []mbr.Entry
	size int64
}

// Run opens a full-screen partition-table browser over an image file.
func Run(path string, ents []mbr.Entry, imageSize int64) error {
	v := &viewer{
		app:    tview.NewApplication(),
		grid:   tview.NewGrid(),
		header: tview.NewTextView(),
		table:  tview.NewTable(),
		footer: tview.NewTextView(),
		path:   path,
		ents:   ents,
		size:   imageSize,
	}
	v.style()
	v.layout()
	v.fill()
	v.bindKeys()
	v.app.SetRoot(v.grid, true)
	v.app.SetFocus(v.table)
	return v.app.Run()
}

func (v *viewer) style() {
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorNavy
	tview.Styles.BorderColor = tcell.ColorSkyblue
	tview.Styles.PrimaryTextColor = tcell.ColorWhite

	v.header.SetBorder(true)
	v.header.SetDynamicColors(true)
	v.header.SetTitle(" mkmbr ")
	v.header.SetTitleColor(tcell.ColorSkyblue)
	fmt.Fprintf(v.header, "[yellow]IMAGE[-]: [white]%s[-]   [yellow]SIZE[-]: [white]%d bytes[-] ([white]%d sectors[-])",
		v.path, v.size, v.size/mbr.SectorSize)

	v.table.SetBorder(true)
	v.table.SetTitle(" partition table ")
	v.table.SetTitleAlign(tview.AlignLeft)
	v.table.SetSelectable(true, false)
	v.table.SetFixed(1, 0)

	v.footer.SetBorder(true)
	v.footer.SetDynamicColors(true)
	fmt.Fprint(v.footer, v.footerText())
}

func (v *viewer) footerText() string {
	lbl := func(k, t string) string { return fmt.Sprintf("[black:white] %s [-:-:-] [yellow]%s[-]", k, t) }
	return strings.Join([]string{
		lbl("Up/Dn", "Select"),
		lbl("q", "Quit"),
	}, "  ")
}

func (v *viewer) layout() {
	v.grid.SetRows(3, 0, 3).SetColumns(0).SetBorders(false)
	v.grid.AddItem(v.header, 0, 0, 1, 1, 0, 0, false)
	v.grid.AddItem(v.table, 1, 0, 1, 1, 0, 0, true)
	v.grid.AddItem(v.footer, 2, 0, 1, 1, 0, 0, false)
}

func (v *viewer) fill() {
	cols := []string{"SLOT", "BOOT", "TYPE", "START LBA", "SECTORS", "BYTES", "CHS START", "CHS END"}
	for c, name := range cols {
		cell := tview.NewTableCell(name).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1)
		v.table.SetCell(0, c, cell)
	}
	for r, e := range v.ents {
		boot := ""
		if e.Bootable {
			boot = "*"
		}
		row := []string{
			fmt.Sprintf("%d", e.Index),
			boot,
			fmt.Sprintf("0x%02X", e.Type),
			fmt.Sprintf("%d", e.StartLBA),
			fmt.Sprintf("%d", e.Sectors),
			fmt.Sprintf("%d", uint64(e.Sectors)*mbr.SectorSize),
			e.StartCHS.String(),
			e.EndCHS.String(),
		}
		for c, s := range row {
			v.table.SetCell(r+1, c, tview.NewTableCell(s).SetExpansion(1))
		}
	}
}

func (v *viewer) bindKeys() {
	v.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Rune() == 'q', ev.Rune() == 'Q':
			v.app.Stop()
			return nil
		}
		return ev
	})
}
