// Package search compares linear scanning against a map index for
// transaction lookup by id.
package search

import (
	"math/rand"
	"time"

	"github.com/username/momosms/backend/src/models"
)

// Entry is a classified transaction tagged with a sequential lookup id.
type Entry struct {
	ID          int64                        `json:"transaction_id"`
	Transaction models.ClassifiedTransaction `json:"transaction"`
}

// BuildEntries assigns sequential ids starting at 1.
func BuildEntries(transactions []models.ClassifiedTransaction) []Entry {
	entries := make([]Entry, len(transactions))
	for i, tx := range transactions {
		entries[i] = Entry{ID: int64(i + 1), Transaction: tx}
	}
	return entries
}

// LinearSearch scans the slice until it finds the id. O(n).
func LinearSearch(entries []Entry, id int64) (*Entry, bool) {
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], true
		}
	}
	return nil, false
}

// Index maps ids to entries for O(1) lookup.
type Index map[int64]*Entry

// BuildIndex builds the id index over entries.
func BuildIndex(entries []Entry) Index {
	index := make(Index, len(entries))
	for i := range entries {
		index[entries[i].ID] = &entries[i]
	}
	return index
}

// Lookup returns the entry for id, if present.
func (ix Index) Lookup(id int64) (*Entry, bool) {
	entry, ok := ix[id]
	return entry, ok
}

// ComparisonResult holds averaged timings for both strategies.
type ComparisonResult struct {
	Searches          int
	LinearAvg         time.Duration
	IndexAvg          time.Duration
	SpeedupLinearOver float64
}

// Compare times both strategies over the same random ids.
func Compare(entries []Entry, searches int) ComparisonResult {
	if searches <= 0 {
		searches = 20
	}
	index := BuildIndex(entries)

	ids := make([]int64, searches)
	for i := range ids {
		ids[i] = int64(rand.Intn(len(entries)) + 1)
	}

	start := time.Now()
	for _, id := range ids {
		LinearSearch(entries, id)
	}
	linearTotal := time.Since(start)

	start = time.Now()
	for _, id := range ids {
		index.Lookup(id)
	}
	indexTotal := time.Since(start)

	result := ComparisonResult{
		Searches:  searches,
		LinearAvg: linearTotal / time.Duration(searches),
		IndexAvg:  indexTotal / time.Duration(searches),
	}
	if indexTotal > 0 {
		result.SpeedupLinearOver = float64(linearTotal) / float64(indexTotal)
	}
	return result
}
