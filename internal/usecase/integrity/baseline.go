package integrity

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/eslsoft/hanguru/internal/entity"
)

// LoadBaseline reads the persisted checksum baseline. A missing file is an
// empty baseline, not an error; a malformed one is.
func LoadBaseline(path string) (entity.Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entity.Baseline{}, nil
		}
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	var baseline entity.Baseline
	if err := json.Unmarshal(data, &baseline); err != nil {
		return nil, fmt.Errorf("parse baseline: %w", err)
	}
	return baseline, nil
}

// SaveBaseline overwrites the baseline wholesale. Single-writer by contract;
// the write goes through a temp file and rename so a crash never leaves a
// truncated baseline behind.
func SaveBaseline(path string, baseline entity.Baseline) error {
	data, err := json.MarshalIndent(baseline, "", "  ")
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write baseline: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace baseline: %w", err)
	}
	return nil
}
