package etl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/username/momosms/backend/src/models"
)

// Stage boundary files, written after each pipeline stage for inspection
// and restart.
const (
	StageFileRaw        = "01_extracted_raw.json"
	StageFileNormalized = "02_cleaned_normalized.json"
	StageFileClassified = "03_categorized.json"
)

func writeStageFile(dir, name string, v interface{}) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating stage directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding stage file %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing stage file %s: %w", path, err)
	}
	return nil
}

func readStageFile(dir, name string, v interface{}) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error decoding stage file %s: %w", path, err)
	}
	return nil
}

// ReadClassifiedStage loads the classified stage file from dir.
func ReadClassifiedStage(dir string) ([]models.ClassifiedTransaction, error) {
	var transactions []models.ClassifiedTransaction
	if err := readStageFile(dir, StageFileClassified, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}
