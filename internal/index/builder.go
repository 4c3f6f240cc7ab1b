package index

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"devscope/internal/models"
)

// Index is the in-memory result of a build, ready for a store to persist.
type Index struct {
	Root string
	Docs []models.DocumentRecord
	// Terms maps term -> docID -> posting.
	Terms map[string]map[uint32]*models.Posting
}

// SortedTerms returns the index's terms in lexical order, the order they
// are persisted in.
func (idx *Index) SortedTerms() []string {
	terms := make([]string, 0, len(idx.Terms))
	for t := range idx.Terms {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// PostingList returns the term's postings sorted by DocID.
func (idx *Index) PostingList(term string) []*models.Posting {
	byDoc := idx.Terms[term]
	list := make([]*models.Posting, 0, len(byDoc))
	for _, p := range byDoc {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DocID < list[j].DocID })
	return list
}

// Builder crawls a tree and tokenizes every document into an Index.
type Builder struct {
	// Workers caps concurrent tokenization; 0 means NumCPU.
	Workers int
	// SkipDir is passed through to the crawler.
	SkipDir string
	// Progress, when set, is called after each file is indexed.
	Progress func(indexed int, path string)
	Logger   *slog.Logger

	mu    sync.Mutex
	terms map[string]map[uint32]*models.Posting
	docs  []models.DocumentRecord
	count int
}

// Build walks root and returns the in-memory index. Files that cannot be
// read are logged and skipped.
func (b *Builder) Build(ctx context.Context, root string) (*Index, error) {
	b.terms = make(map[string]map[uint32]*models.Posting)
	b.docs = nil
	b.count = 0

	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	records := make(chan models.DocumentRecord, 64)
	crawler := &Crawler{Root: root, SkipDir: b.SkipDir, Logger: logger}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return crawler.Crawl(ctx, records) })

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for rec := range records {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := b.indexOne(rec); err != nil {
					logger.Warn("skipping unreadable file", "path", rec.Path, "error", err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Workers finish out of order; the document table is stored sorted.
	sort.Slice(b.docs, func(i, j int) bool { return b.docs[i].DocID < b.docs[j].DocID })
	return &Index{Root: root, Docs: b.docs, Terms: b.terms}, nil
}

func (b *Builder) indexOne(rec models.DocumentRecord) error {
	f, err := os.Open(rec.Path)
	if err != nil {
		return err
	}
	tokens, minT, maxT := Tokenize(f, rec.Type)
	f.Close()

	rec.TimestampMin = minT
	rec.TimestampMax = maxT

	// File name tokens go first so posting positions stay ascending.
	tokens = append(FileNameTokens(rec.Path), tokens...)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tok := range tokens {
		b.addToken(tok, rec.DocID)
	}
	b.docs = append(b.docs, rec)
	b.count++
	if b.Progress != nil {
		b.Progress(b.count, rec.Path)
	}
	return nil
}

// addToken merges one occurrence into the in-memory index. Callers hold
// b.mu.
func (b *Builder) addToken(tok RawToken, docID uint32) {
	byDoc, ok := b.terms[tok.Term]
	if !ok {
		byDoc = make(map[uint32]*models.Posting)
		b.terms[tok.Term] = byDoc
	}
	p, ok := byDoc[docID]
	if !ok {
		p = &models.Posting{DocID: docID}
		byDoc[docID] = p
	}
	p.Frequency++
	p.Positions = append(p.Positions, tok.Position)
	p.Meta |= tok.Meta
}
