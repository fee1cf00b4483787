package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/rs/zerolog"
)

// SheetHeader is the first row of the log sheet.
var SheetHeader = []string{"Merchant", "Card", "Date Added", "Status"}

// SheetsConfig holds what SheetsWriter needs to reach a spreadsheet.
type SheetsConfig struct {
	SpreadsheetID string
	SheetName     string
	APIKey        string
	// Endpoint defaults to https://sheets.googleapis.com.
	Endpoint string
}

// SheetsWriter appends successful results to a Google Sheet through the
// Sheets v4 values API.
type SheetsWriter struct {
	cfg    SheetsConfig
	client *http.Client
	logger zerolog.Logger
}

func NewSheetsWriter(cfg SheetsConfig, client *http.Client, logger zerolog.Logger) *SheetsWriter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://sheets.googleapis.com"
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SheetsWriter{
		cfg:    cfg,
		client: client,
		logger: logger.With().Str("writer", SheetsWriterType).Logger(),
	}
}

// Enabled reports whether a spreadsheet and API key are configured.
func (sw *SheetsWriter) Enabled() bool {
	return sw.cfg.SpreadsheetID != "" && sw.cfg.APIKey != ""
}

// Write appends one row per successful result. Without an API key or
// spreadsheet it logs a warning and does nothing.
func (sw *SheetsWriter) Write(ctx context.Context, results []offers.Result) error {
	if !sw.Enabled() {
		sw.logger.Warn().Msg("no spreadsheet or API key configured, skipping Google Sheets logging")
		return nil
	}

	rows := Rows(results)
	if len(rows) == 0 {
		sw.logger.Info().Msg("no successful offers to log")
		return nil
	}

	if err := sw.ensureHeader(ctx); err != nil {
		return err
	}
	if err := sw.append(ctx, rows); err != nil {
		return err
	}

	sw.logger.Info().Int("rows", len(rows)).Msg("logged offers to Google Sheets")
	return nil
}

// Rows converts successful results to sheet rows.
func Rows(results []offers.Result) [][]string {
	var rows [][]string
	for _, r := range results {
		if !r.Success {
			continue
		}
		rows = append(rows, []string{r.Merchant, r.CardName, r.Timestamp.Format(time.RFC3339), string(r.Status)})
	}
	return rows
}

func (sw *SheetsWriter) valuesURL(rng, suffix string, query url.Values) string {
	query.Set("key", sw.cfg.APIKey)
	return fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s%s?%s",
		strings.TrimRight(sw.cfg.Endpoint, "/"),
		url.PathEscape(sw.cfg.SpreadsheetID),
		url.PathEscape(rng),
		suffix,
		query.Encode(),
	)
}

// ensureHeader writes SheetHeader when the sheet's first row is empty.
func (sw *SheetsWriter) ensureHeader(ctx context.Context) error {
	u := sw.valuesURL(sw.cfg.SheetName+"!A1:D1", "", url.Values{})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	var got struct {
		Values [][]string `json:"values"`
	}
	if err := sw.do(req, &got); err != nil {
		return fmt.Errorf("read sheet header: %w", err)
	}
	if len(got.Values) > 0 {
		return nil
	}

	sw.logger.Debug().Msg("sheet is empty, writing header")
	return sw.append(ctx, [][]string{SheetHeader})
}

func (sw *SheetsWriter) append(ctx context.Context, rows [][]string) error {
	body, err := json.Marshal(map[string]any{"values": rows})
	if err != nil {
		return err
	}

	u := sw.valuesURL(sw.cfg.SheetName, ":append", url.Values{"valueInputOption": {"RAW"}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if err := sw.do(req, nil); err != nil {
		return fmt.Errorf("append rows: %w", err)
	}
	return nil
}

func (sw *SheetsWriter) do(req *http.Request, out any) error {
	resp, err := sw.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
