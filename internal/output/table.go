package output

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/olekukonko/tablewriter"
)

// TableWriter prints results and a summary footer as a table.
type TableWriter struct {
	out io.Writer
}

// NewTableWriter returns a TableWriter printing to out, or stdout when nil.
func NewTableWriter(out io.Writer) *TableWriter {
	if out == nil {
		out = os.Stdout
	}
	return &TableWriter{out: out}
}

func (tw *TableWriter) Write(_ context.Context, results []offers.Result) error {
	table := tablewriter.NewWriter(tw.out)
	table.Header("Card", "Merchant", "Status", "Error")

	for _, r := range results {
		if err := table.Append([]string{r.CardName, r.Merchant, string(r.Status), r.Error}); err != nil {
			return err
		}
	}

	s := offers.Summarize(results)
	table.Footer(
		fmt.Sprintf("%d total", s.Total),
		fmt.Sprintf("%d added", s.Success),
		fmt.Sprintf("%d uncertain", s.Uncertain),
		fmt.Sprintf("%d errors (%.1f%% success)", s.Errors, s.SuccessRate),
	)

	return table.Render()
}

// WriteCards prints the discovered cards.
func WriteCards(out io.Writer, cards []offers.Card) error {
	table := tablewriter.NewWriter(out)
	table.Header("#", "Card", "Account Key", "Switcher")
	for i, c := range cards {
		if err := table.Append([]string{fmt.Sprint(i + 1), c.Name, c.AccountKey, string(c.Kind)}); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteOffers prints scanned offers.
func WriteOffers(out io.Writer, found []offers.Offer) error {
	table := tablewriter.NewWriter(out)
	table.Header("#", "Merchant")
	for i, o := range found {
		if err := table.Append([]string{fmt.Sprint(i + 1), o.Merchant}); err != nil {
			return err
		}
	}
	return table.Render()
}
