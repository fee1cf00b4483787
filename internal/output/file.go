package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/rs/zerolog"
)

// FileWriter exports results as a JSON array to a dated file.
type FileWriter struct {
	dir    string
	now    func() time.Time
	logger zerolog.Logger
}

// NewFileWriter returns a FileWriter writing into dir.
func NewFileWriter(dir string, logger zerolog.Logger) *FileWriter {
	return &FileWriter{
		dir:    dir,
		now:    time.Now,
		logger: logger.With().Str("writer", FileWriterType).Logger(),
	}
}

// Path returns the export file for today.
func (fw *FileWriter) Path() string {
	name := fmt.Sprintf("amex-offers-results-%s.json", fw.now().Format(time.DateOnly))
	return filepath.Join(fw.dir, name)
}

func (fw *FileWriter) Write(_ context.Context, results []offers.Result) error {
	if results == nil {
		results = []offers.Result{}
	}

	// json.MarshalIndent would escape & < > in merchant names.
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	if err := os.MkdirAll(fw.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := fw.Path()
	if err := os.WriteFile(path, buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fw.logger.Info().Int("results", len(results)).Str("path", path).Msg("exported results")
	return nil
}
