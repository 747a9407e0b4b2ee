package etl

import (
	"errors"
	"io"

	"github.com/username/momosms/backend/src/models"
)

var (
	// ErrInputNotFound is returned when the XML export path does not exist.
	ErrInputNotFound = errors.New("input file not found")
	// ErrMalformedXML is returned when the export is not well-formed XML.
	ErrMalformedXML = errors.New("malformed XML input")
)

// Extractor reads an XML export and yields one RawMessage per <sms> element.
type Extractor interface {
	ExtractFile(path string) ([]models.RawMessage, error)
	Extract(r io.Reader) ([]models.RawMessage, error)
}

// Normalizer converts raw string attributes into typed fields, dropping
// records with an unparseable timestamp. Returns the skipped count alongside.
type Normalizer interface {
	Normalize(raw []models.RawMessage) ([]models.NormalizedRecord, int)
}

// Classifier derives transaction fields from message body text. Records
// without an external reference are dropped as non-transactional and counted.
type Classifier interface {
	Classify(records []models.NormalizedRecord) ([]models.ClassifiedTransaction, int)
}

// Loader persists classified transactions, skipping external references that
// are already present.
type Loader interface {
	Load(transactions []models.ClassifiedTransaction, runID string) (LoadResult, error)
}

// LoadResult summarizes one load batch.
type LoadResult struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}
