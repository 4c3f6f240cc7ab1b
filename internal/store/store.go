// Package store persists built indexes and opens them for querying. Two
// backends share one binary record format: a directory of artifact files,
// and Redis.
package store

import (
	"context"
	"errors"
	"time"

	"devscope/internal/index"
	"devscope/internal/models"
)

// ErrNoIndex reports that no index exists at the configured location.
var ErrNoIndex = errors.New("index not found")

// Manifest is the sidecar written after a successful build.
type Manifest struct {
	BuildID    string    `json:"build_id"`
	Root       string    `json:"root"`
	BuiltAt    time.Time `json:"built_at"`
	TotalDocs  int       `json:"total_docs"`
	TotalTerms int       `json:"total_terms"`
}

// Backend stores indexes.
type Backend interface {
	// WriteIndex replaces the stored index with idx and returns the new
	// manifest.
	WriteIndex(ctx context.Context, idx *index.Index) (Manifest, error)
	// OpenReader loads the document table and lexicon and prepares
	// on-demand posting access. Returns ErrNoIndex when nothing is stored.
	OpenReader(ctx context.Context) (*Reader, error)
	// ReadManifest returns the stored manifest, or ErrNoIndex.
	ReadManifest(ctx context.Context) (Manifest, error)
	// Describe names the backend and its location for status output.
	Describe() string
	// Close releases backend resources.
	Close() error
}

// PostingSource fetches one term's posting list from wherever the backend
// keeps it.
type PostingSource interface {
	Postings(ctx context.Context, entry models.LexiconEntry) ([]models.Posting, error)
	Close() error
}

// Reader is a loaded index: the full document table and lexicon in memory,
// posting lists fetched on demand.
type Reader struct {
	docs    map[uint32]models.DocumentRecord
	lexicon map[string]models.LexiconEntry
	source  PostingSource
}

// NewReader assembles a Reader from already-loaded tables. Backends call
// this; tests may too.
func NewReader(docs map[uint32]models.DocumentRecord, lexicon map[string]models.LexiconEntry, source PostingSource) *Reader {
	return &Reader{docs: docs, lexicon: lexicon, source: source}
}

// TotalDocs returns the number of indexed documents.
func (r *Reader) TotalDocs() int { return len(r.docs) }

// TotalTerms returns the number of distinct terms.
func (r *Reader) TotalTerms() int { return len(r.lexicon) }

// Doc returns the record for a DocID.
func (r *Reader) Doc(id uint32) (models.DocumentRecord, bool) {
	rec, ok := r.docs[id]
	return rec, ok
}

// Lookup returns the lexicon entry for a term.
func (r *Reader) Lookup(term string) (models.LexiconEntry, bool) {
	entry, ok := r.lexicon[term]
	return entry, ok
}

// Postings returns the term's posting list, or nil when the term is not in
// the lexicon.
func (r *Reader) Postings(ctx context.Context, term string) ([]models.Posting, error) {
	entry, ok := r.lexicon[term]
	if !ok {
		return nil, nil
	}
	return r.source.Postings(ctx, entry)
}

// Close releases the posting source.
func (r *Reader) Close() error {
	if r.source == nil {
		return nil
	}
	return r.source.Close()
}
