package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"devscope/internal/models"
	"devscope/internal/store"
)

// DefaultLimit caps results when the caller asks for no particular limit.
const DefaultLimit = 10

// Bonuses applied on top of tf-idf per matching posting.
const (
	fileNameBonus     = 5.0
	functionNameBonus = 3.0
	phraseBoost       = 2.0
)

// SearchResult is one ranked hit.
type SearchResult struct {
	DocID      uint32  `json:"doc_id"`
	Path       string  `json:"path"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet,omitempty"`
	LineNum    uint32  `json:"line,omitempty"`
	MatchCount uint32  `json:"matches"`
}

// Searcher ranks documents in a loaded index against parsed queries.
type Searcher struct {
	reader *store.Reader
	// Limit caps returned results; 0 means DefaultLimit.
	Limit int
}

// NewSearcher returns a Searcher over the given reader.
func NewSearcher(reader *store.Reader) *Searcher {
	return &Searcher{reader: reader}
}

// Search parses raw and returns the ranked matches. Every term and phrase
// is required; a query with no terms or phrases returns no results.
func (s *Searcher) Search(ctx context.Context, raw string) ([]SearchResult, error) {
	q := Parse(raw)
	required := q.Required()
	if required == 0 {
		return nil, nil
	}

	scores := make(map[uint32]float64)
	totalFreqs := make(map[uint32]uint32)
	docMatches := make(map[uint32]int)

	for _, term := range q.Terms {
		postings, err := s.reader.Postings(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("reading postings for %q: %w", term, err)
		}
		if postings == nil {
			continue
		}
		idf := s.idf(term)
		s.scorePostings(postings, idf, q, scores, docMatches, totalFreqs)
	}

	for _, phrase := range q.Phrases {
		counts, err := s.matchPhrase(ctx, phrase)
		if err != nil {
			return nil, err
		}
		if counts == nil {
			continue
		}

		var phraseIdf float64
		for _, word := range phrase {
			phraseIdf += s.idf(word)
		}

		for docID, count := range counts {
			doc, ok := s.reader.Doc(docID)
			if !ok {
				continue
			}
			if q.Ext != "" && !strings.HasSuffix(strings.ToLower(doc.Path), q.Ext) {
				continue
			}
			scores[docID] += float64(count) * phraseIdf * phraseBoost
			totalFreqs[docID] += count
			docMatches[docID]++
		}
	}

	var results []SearchResult
	for docID, count := range docMatches {
		if count != required {
			continue
		}
		doc, _ := s.reader.Doc(docID)
		results = append(results, SearchResult{
			DocID:      docID,
			Path:       doc.Path,
			Score:      scores[docID],
			MatchCount: totalFreqs[docID],
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	limit := s.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}

	displayTerm := q.DisplayTerm()
	for i := range results {
		results[i].Snippet, results[i].LineNum = Snippet(results[i].Path, displayTerm)
	}
	return results, nil
}

// idf is ln(totalDocs / (docFreq+1)). Unknown terms get docFreq 0.
func (s *Searcher) idf(term string) float64 {
	var df uint32
	if entry, ok := s.reader.Lookup(term); ok {
		df = entry.DocFreq
	}
	return math.Log(float64(s.reader.TotalDocs()) / (float64(df) + 1))
}

// scorePostings folds one term's postings into the accumulators, applying
// the query's level and ext filters.
func (s *Searcher) scorePostings(postings []models.Posting, idf float64, q Query, scores map[uint32]float64, docMatches map[uint32]int, totalFreqs map[uint32]uint32) {
	for _, p := range postings {
		doc, ok := s.reader.Doc(p.DocID)
		if !ok {
			continue
		}
		if q.Ext != "" && !strings.HasSuffix(strings.ToLower(doc.Path), q.Ext) {
			continue
		}
		switch q.Level {
		case "ERROR":
			if p.Meta&models.MetaLogLevelError == 0 {
				continue
			}
		case "WARN":
			if p.Meta&models.MetaLogLevelWarn == 0 {
				continue
			}
		}

		score := float64(p.Frequency) * idf
		if p.Meta&models.MetaInFileName != 0 {
			score += fileNameBonus
		}
		if p.Meta&models.MetaInFunctionName != 0 {
			score += functionNameBonus
		}

		scores[p.DocID] += score
		totalFreqs[p.DocID] += p.Frequency
		docMatches[p.DocID]++
	}
}

// matchPhrase returns per-document counts of position chains where the
// phrase's words sit on strictly adjacent positions. A nil map means some
// word of the phrase is absent from the index entirely.
func (s *Searcher) matchPhrase(ctx context.Context, phrase []string) (map[uint32]uint32, error) {
	lists := make([][]models.Posting, 0, len(phrase))
	for _, word := range phrase {
		p, err := s.reader.Postings(ctx, word)
		if err != nil {
			return nil, fmt.Errorf("reading postings for %q: %w", word, err)
		}
		if p == nil {
			return nil, nil
		}
		lists = append(lists, p)
	}
	return matchPhraseDocs(lists), nil
}

func matchPhraseDocs(lists [][]models.Posting) map[uint32]uint32 {
	// candidates maps docID to the positions where a chain currently ends.
	candidates := make(map[uint32][]uint32)
	for _, p := range lists[0] {
		candidates[p.DocID] = p.Positions
	}

	for i := 1; i < len(lists); i++ {
		next := make(map[uint32][]uint32)
		for _, p := range lists[i] {
			prevPositions, ok := candidates[p.DocID]
			if !ok {
				continue
			}
			var extended []uint32
			for _, prev := range prevPositions {
				for _, curr := range p.Positions {
					if prev+1 == curr {
						extended = append(extended, curr)
					}
				}
			}
			if len(extended) > 0 {
				next[p.DocID] = extended
			}
		}
		candidates = next
		if len(candidates) == 0 {
			break
		}
	}

	counts := make(map[uint32]uint32, len(candidates))
	for id, positions := range candidates {
		counts[id] = uint32(len(positions))
	}
	return counts
}
