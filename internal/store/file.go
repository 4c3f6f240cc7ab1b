package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"devscope/internal/index"
	"devscope/internal/models"
)

// FileBackend stores the index as binary artifacts in a directory.
type FileBackend struct {
	Dir string
}

// OpenFile returns a backend rooted at dir. The directory is created on
// the first write.
func OpenFile(dir string) *FileBackend {
	return &FileBackend{Dir: dir}
}

func (b *FileBackend) Describe() string {
	return fmt.Sprintf("file (%s)", b.Dir)
}

func (b *FileBackend) Close() error { return nil }

// WriteIndex writes docs, postings, lexicon and manifest. Each artifact is
// written to a temp file and renamed into place, so a crashed build leaves
// the previous index readable.
func (b *FileBackend) WriteIndex(ctx context.Context, idx *index.Index) (Manifest, error) {
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("creating index directory: %w", err)
	}

	if err := b.writeDocs(idx); err != nil {
		return Manifest{}, fmt.Errorf("writing %s: %w", models.DocsFileName, err)
	}
	lexicon, err := b.writePostings(idx)
	if err != nil {
		return Manifest{}, fmt.Errorf("writing %s: %w", models.IndexFileName, err)
	}
	if err := b.writeLexicon(lexicon); err != nil {
		return Manifest{}, fmt.Errorf("writing %s: %w", models.LexiconFileName, err)
	}

	man := Manifest{
		BuildID:    uuid.NewString(),
		Root:       idx.Root,
		BuiltAt:    time.Now().UTC(),
		TotalDocs:  len(idx.Docs),
		TotalTerms: len(lexicon),
	}
	if err := b.writeManifest(man); err != nil {
		return Manifest{}, fmt.Errorf("writing %s: %w", models.ManifestFileName, err)
	}
	return man, nil
}

// writeArtifact fills a temp file in the index directory and renames it to
// name.
func (b *FileBackend) writeArtifact(name string, fill func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(b.Dir, name+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := fill(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(b.Dir, name))
}

func (b *FileBackend) writeDocs(idx *index.Index) error {
	return b.writeArtifact(models.DocsFileName, func(w io.Writer) error {
		if err := writeHeader(w, docsMagic); err != nil {
			return err
		}
		for _, rec := range idx.Docs {
			if err := writeDocRecord(w, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *FileBackend) writePostings(idx *index.Index) ([]models.LexiconEntry, error) {
	terms := idx.SortedTerms()
	entries := make([]models.LexiconEntry, 0, len(terms))
	err := b.writeArtifact(models.IndexFileName, func(w io.Writer) error {
		if err := writeHeader(w, indexMagic); err != nil {
			return err
		}
		offset := headerSize(indexMagic)
		for _, term := range terms {
			list := idx.PostingList(term)
			start := offset
			for _, p := range list {
				if err := writePosting(w, p); err != nil {
					return err
				}
				offset += postingSize(p)
			}
			entries = append(entries, models.LexiconEntry{
				Term:         term,
				DocFreq:      uint32(len(list)),
				Offset:       start,
				PostingCount: uint32(len(list)),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (b *FileBackend) writeLexicon(entries []models.LexiconEntry) error {
	return b.writeArtifact(models.LexiconFileName, func(w io.Writer) error {
		if err := writeHeader(w, lexiconMagic); err != nil {
			return err
		}
		for _, e := range entries {
			if err := writeLexiconEntry(w, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *FileBackend) writeManifest(man Manifest) error {
	return b.writeArtifact(models.ManifestFileName, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(man)
	})
}

// OpenReader loads the document table and the lexicon and keeps the
// postings file open for on-demand reads.
func (b *FileBackend) OpenReader(ctx context.Context) (*Reader, error) {
	docs, err := b.loadDocs()
	if err != nil {
		return nil, err
	}
	lexicon, err := b.loadLexicon()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(b.Dir, models.IndexFileName))
	if err != nil {
		return nil, noIndexIfMissing(err)
	}
	if err := verifyHeader(f, indexMagic, models.IndexFileName); err != nil {
		f.Close()
		return nil, err
	}
	return NewReader(docs, lexicon, &fileSource{f: f}), nil
}

func (b *FileBackend) loadDocs() (map[uint32]models.DocumentRecord, error) {
	f, err := os.Open(filepath.Join(b.Dir, models.DocsFileName))
	if err != nil {
		return nil, noIndexIfMissing(err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if err := verifyHeader(r, docsMagic, models.DocsFileName); err != nil {
		return nil, err
	}
	docs := make(map[uint32]models.DocumentRecord)
	for {
		rec, err := readDocRecord(r)
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", models.DocsFileName, err)
		}
		docs[rec.DocID] = rec
	}
}

func (b *FileBackend) loadLexicon() (map[string]models.LexiconEntry, error) {
	f, err := os.Open(filepath.Join(b.Dir, models.LexiconFileName))
	if err != nil {
		return nil, noIndexIfMissing(err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if err := verifyHeader(r, lexiconMagic, models.LexiconFileName); err != nil {
		return nil, err
	}
	lexicon := make(map[string]models.LexiconEntry)
	for {
		entry, err := readLexiconEntry(r)
		if err == io.EOF {
			return lexicon, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", models.LexiconFileName, err)
		}
		lexicon[entry.Term] = entry
	}
}

// ReadManifest returns the manifest of the last successful build.
func (b *FileBackend) ReadManifest(ctx context.Context) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(b.Dir, models.ManifestFileName))
	if err != nil {
		return Manifest{}, noIndexIfMissing(err)
	}
	var man Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", models.ManifestFileName, err)
	}
	return man, nil
}

func noIndexIfMissing(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNoIndex
	}
	return err
}

// fileSource reads posting lists from the open postings file. Seeks and
// reads are serialized so concurrent queries do not interleave.
type fileSource struct {
	mu sync.Mutex
	f  *os.File
}

func (s *fileSource) Postings(ctx context.Context, entry models.LexiconEntry) ([]models.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	return readPostingList(bufio.NewReader(s.f), entry.PostingCount)
}

func (s *fileSource) Close() error { return s.f.Close() }
