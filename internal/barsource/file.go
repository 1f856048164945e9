package barsource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"bxscan/internal/model"
)

// FileSource reads pre-fetched bar series from JSON files on disk, one file
// per symbol and resolution: "{dir}/{symbol}_{resolution}.json", each holding
// a JSON array of bars. It is the offline adapter for data exported from an
// external provider.
type FileSource struct {
	dir string
}

// NewFileSource creates a file-backed source rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (f *FileSource) Bars(ctx context.Context, symbol string, res model.Resolution) ([]model.PriceBar, error) {
	path := filepath.Join(f.dir, fmt.Sprintf("%s_%s.json", symbol, res))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bars %s: %w", path, err)
	}

	var bars []model.PriceBar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("parse bars %s: %w", path, err)
	}
	if err := Validate(bars); err != nil {
		return nil, fmt.Errorf("bars %s: %w", path, err)
	}
	return bars, nil
}
