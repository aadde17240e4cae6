// Package dataset loads the newline-delimited JSON record files written by
// the generation pipeline. Parsing is all-or-nothing: a malformed line
// fails the whole load so the viewer never adopts a partial record set.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/visionrag/ragview/internal/models"
)

// maxLineBytes bounds a single JSONL line. Records embed full prompts and
// responses but stay well under this.
const maxLineBytes = 16 * 1024 * 1024

// Load reads records from a .jsonl file, transparently decompressing
// .jsonl.gz files.
func Load(path string) ([]*models.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("dataset: gzip %s: %w", path, err)
		}
		defer zr.Close() //nolint:errcheck
		r = zr
	}

	records, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}
	return records, nil
}

// Parse reads newline-delimited records from r. Blank lines are skipped.
func Parse(r io.Reader) ([]*models.RawRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var records []*models.RawRecord
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec models.RawRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := validate(&rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, &rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// validate enforces the load-boundary invariants. Everything downstream
// assumes records that passed here.
func validate(rec *models.RawRecord) error {
	if rec.ItemID == "" {
		return fmt.Errorf("record missing item_id")
	}
	if rec.ModelName == "" {
		return fmt.Errorf("record %s missing model_name", rec.ItemID)
	}
	if rec.ProcessingTimeSeconds < 0 {
		return fmt.Errorf("record %s has negative processing time", rec.ItemID)
	}
	if !rec.WithContext && len(rec.SimilarItems) > 0 {
		return fmt.Errorf("record %s has similar_items without context", rec.ItemID)
	}
	return nil
}
