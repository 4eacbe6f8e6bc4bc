package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"Finansle/internal/model"

	"github.com/rs/zerolog/log"
)

// JSONRecorder writes records to a JSON file. Each write replaces the file
// atomically: readers see either the previous snapshot or the new one.
type JSONRecorder struct {
	path string
	mu   sync.Mutex
}

// NewJSONRecorder creates the parent directory of path if needed.
func NewJSONRecorder(path string) (*JSONRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	return &JSONRecorder{path: path}, nil
}

// Path returns the output file.
func (r *JSONRecorder) Path() string { return r.path }

func (r *JSONRecorder) Record(rec *model.StockRecord) error {
	if rec == nil {
		return fmt.Errorf("record: nil stock record")
	}
	if err := r.write(rec); err != nil {
		return err
	}
	log.Info().Str("ticker", rec.Ticker).Str("path", r.path).Msg("stock data saved")
	return nil
}

func (r *JSONRecorder) RecordAll(recs []*model.StockRecord) error {
	if recs == nil {
		recs = []*model.StockRecord{}
	}
	if err := r.write(recs); err != nil {
		return err
	}
	log.Info().Int("records", len(recs)).Str("path", r.path).Msg("batch data saved")
	return nil
}

func (r *JSONRecorder) Close() error { return nil }

func (r *JSONRecorder) write(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}
