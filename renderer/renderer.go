// Package renderer turns a portfolio snapshot into markdown, ready to be
// printed through a terminal markdown renderer.
package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/patry"
)

const unavailable = "n/a"

// Portfolio renders the consolidated asset table: one subtotal row per
// account followed by its asset rows, and a closing portfolio total.
// Accounts that failed keep their row, marked unavailable, with the failure
// listed below the table.
func Portfolio(snap *patry.PortfolioSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio — %s\n\n", snap.AsOf)

	total := snap.TotalValue()
	table := newTable(snap.USD)
	for _, account := range snap.Accounts {
		sub := snap.Totals[account]
		sub.Asset = "Σ " + strings.ToUpper(account)
		table.row(sub, total)
		for _, r := range snap.AccountRows(account) {
			if r.Err != nil || r.Asset == "" {
				continue // failures and empty accounts are carried by the subtotal row
			}
			table.row(r, total)
		}
	}
	grand := snap.Total
	grand.Asset = "Total"
	table.row(grand, total)
	table.flush(&b)

	var failures []string
	for _, r := range snap.Rows {
		if r.Err != nil {
			failures = append(failures, fmt.Sprintf("> **%s** unavailable: %v", r.Account, r.Err))
		}
	}
	if len(failures) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(failures, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// table accumulates rows so the markdown stays aligned and the optional USD
// column is inserted consistently everywhere.
type table struct {
	usd   *patry.USDColumn
	cells [][]string
}

func newTable(usd *patry.USDColumn) *table {
	t := &table{usd: usd}
	header := []string{"Name", "Outlay CLP", "Value CLP", "Total %", "Delta CLP", "Delta %", "Rate %", "Years"}
	t.cells = append(t.cells, t.insertUSD(header, "Value USD"))
	return t
}

func (t *table) row(r patry.AccountSnapshot, total patry.Money) {
	if r.Err != nil {
		cells := []string{r.Asset, unavailable, unavailable, unavailable, unavailable, unavailable, unavailable, unavailable}
		t.cells = append(t.cells, t.insertUSD(cells, unavailable))
		return
	}

	share := unavailable
	if !total.IsZero() {
		share = fmt.Sprintf("%.1f%%", 100*r.Value.AsFloat()/total.AsFloat())
	}
	cells := []string{
		r.Asset,
		moneyOr(r.Outlay),
		r.Value.String(),
		share,
		deltaCell(r),
		ratioCell(r),
		rateCell(r.Rate),
		yearsCell(r.Years),
	}
	t.cells = append(t.cells, t.insertUSD(cells, t.usdCell(r.Value)))
}

// insertUSD places the extra cell at the requested column index, clamped to
// the table width.
func (t *table) insertUSD(cells []string, value string) []string {
	if t.usd == nil {
		return cells
	}
	i := t.usd.Index
	if i < 0 {
		i = 0
	}
	if i > len(cells) {
		i = len(cells)
	}
	out := make([]string, 0, len(cells)+1)
	out = append(out, cells[:i]...)
	out = append(out, value)
	out = append(out, cells[i:]...)
	return out
}

func (t *table) usdCell(value patry.Money) string {
	if t.usd == nil || t.usd.Rate.IsZero() {
		return unavailable
	}
	// rounded to the nearest ten dollars, converted values are estimates
	converted := value.Decimal().Div(t.usd.Rate).Round(-1)
	return patry.M(converted, "USD").String()
}

func (t *table) flush(b *strings.Builder) {
	widths := make([]int, len(t.cells[0]))
	for _, row := range t.cells {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	writeRow := func(row []string) {
		for i, cell := range row {
			fmt.Fprintf(b, "| %-*s ", widths[i], cell)
		}
		b.WriteString("|\n")
	}
	writeRow(t.cells[0])
	for i, w := range widths {
		align := "-:" // numeric columns align right
		if i == 0 {
			align = ":-"
		}
		fmt.Fprintf(b, "|%s%s", strings.Repeat("-", w), align)
	}
	b.WriteString("|\n")
	for _, row := range t.cells[1:] {
		writeRow(row)
	}
}

func moneyOr(m patry.Money) string {
	if m.IsZero() {
		return unavailable
	}
	return m.String()
}

func deltaCell(r patry.AccountSnapshot) string {
	profit, ok := r.Profit()
	if !ok {
		return unavailable
	}
	return profit.SignedString()
}

func ratioCell(r patry.AccountSnapshot) string {
	ratio, ok := r.ProfitRatio()
	if !ok {
		return unavailable
	}
	return ratio.SignedString()
}

func rateCell(p *patry.Percent) string {
	if p == nil {
		return unavailable
	}
	return p.String()
}

func yearsCell(y *float64) string {
	if y == nil {
		return unavailable
	}
	return fmt.Sprintf("%.1f", *y)
}
