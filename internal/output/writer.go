// Package output provides the writers that persist or report the results
// of an automation run.
package output

import (
	"context"

	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
)

// Writer defines the interface for all writers that are responsible for
// writing run results to a specific output.
type Writer interface {
	Write(ctx context.Context, results []offers.Result) error
}

// Writer types
const (
	FileWriterType   = "file"
	SheetsWriterType = "sheets"
	TableWriterType  = "table"
)

// WriteAll runs every writer, continuing past failures. It returns the
// first error.
func WriteAll(ctx context.Context, results []offers.Result, writers ...Writer) error {
	var first error
	for _, w := range writers {
		if err := w.Write(ctx, results); err != nil && first == nil {
			first = err
		}
	}
	return first
}
