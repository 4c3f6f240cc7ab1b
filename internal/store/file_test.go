package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"devscope/internal/index"
	"devscope/internal/models"
)

func testIndex() *index.Index {
	return &index.Index{
		Root: "src",
		Docs: []models.DocumentRecord{
			{DocID: 1, Type: models.DocTypeCode, Path: "src/main.go"},
			{DocID: 2, Type: models.DocTypeLog, Path: "src/app.log", TimestampMin: 100, TimestampMax: 200},
		},
		Terms: map[string]map[uint32]*models.Posting{
			"main": {
				1: {DocID: 1, Frequency: 2, Positions: []uint32{0, 3}, Meta: models.MetaInFileName},
			},
			"error": {
				2: {DocID: 2, Frequency: 1, Positions: []uint32{5}, Meta: models.MetaLogLevelError},
			},
			"shared": {
				1: {DocID: 1, Frequency: 1, Positions: []uint32{9}},
				2: {DocID: 2, Frequency: 3, Positions: []uint32{1, 2, 3}},
			},
		},
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	b := OpenFile(dir)

	man, err := b.WriteIndex(context.Background(), testIndex())
	if err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}
	if man.TotalDocs != 2 || man.TotalTerms != 3 {
		t.Errorf("manifest counts = %d docs / %d terms, want 2 / 3", man.TotalDocs, man.TotalTerms)
	}
	if man.BuildID == "" {
		t.Error("manifest has empty build ID")
	}

	reader, err := b.OpenReader(context.Background())
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer reader.Close()

	if reader.TotalDocs() != 2 || reader.TotalTerms() != 3 {
		t.Errorf("reader counts = %d docs / %d terms, want 2 / 3",
			reader.TotalDocs(), reader.TotalTerms())
	}

	doc, ok := reader.Doc(2)
	if !ok || doc.Path != "src/app.log" || doc.TimestampMax != 200 {
		t.Errorf("Doc(2) = %+v, %v", doc, ok)
	}

	postings, err := reader.Postings(context.Background(), "shared")
	if err != nil {
		t.Fatalf("Postings(shared): %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("shared has %d postings, want 2", len(postings))
	}
	if postings[0].DocID != 1 || postings[1].DocID != 2 {
		t.Errorf("postings not sorted by DocID: %+v", postings)
	}
	if postings[1].Frequency != 3 || len(postings[1].Positions) != 3 {
		t.Errorf("doc 2 posting = %+v", postings[1])
	}

	// Unknown terms resolve to a nil list, not an error.
	missing, err := reader.Postings(context.Background(), "absent")
	if err != nil || missing != nil {
		t.Errorf("Postings(absent) = %v, %v; want nil, nil", missing, err)
	}
}

func TestFileBackendNoIndex(t *testing.T) {
	b := OpenFile(filepath.Join(t.TempDir(), "empty"))

	if _, err := b.OpenReader(context.Background()); !errors.Is(err, ErrNoIndex) {
		t.Errorf("OpenReader error = %v, want ErrNoIndex", err)
	}
	if _, err := b.ReadManifest(context.Background()); !errors.Is(err, ErrNoIndex) {
		t.Errorf("ReadManifest error = %v, want ErrNoIndex", err)
	}
}

func TestFileBackendManifest(t *testing.T) {
	dir := t.TempDir()
	b := OpenFile(dir)
	wrote, err := b.WriteIndex(context.Background(), testIndex())
	if err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}
	read, err := b.ReadManifest(context.Background())
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if read.BuildID != wrote.BuildID || read.Root != "src" {
		t.Errorf("manifest = %+v, want build %s root src", read, wrote.BuildID)
	}
	if !read.BuiltAt.Equal(wrote.BuiltAt) {
		t.Errorf("BuiltAt = %v, want %v", read.BuiltAt, wrote.BuiltAt)
	}
}

func TestFileBackendRejectsForeignArtifact(t *testing.T) {
	dir := t.TempDir()
	b := OpenFile(dir)
	if _, err := b.WriteIndex(context.Background(), testIndex()); err != nil {
		t.Fatal(err)
	}
	// Clobber the docs header with a different format's bytes.
	if err := os.WriteFile(filepath.Join(dir, models.DocsFileName), []byte("SQLITE format 3\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := b.OpenReader(context.Background()); err == nil {
		t.Fatal("OpenReader accepted foreign docs artifact")
	}
}

func TestFileBackendRewriteReplacesIndex(t *testing.T) {
	dir := t.TempDir()
	b := OpenFile(dir)
	if _, err := b.WriteIndex(context.Background(), testIndex()); err != nil {
		t.Fatal(err)
	}

	smaller := &index.Index{
		Root: "src",
		Docs: []models.DocumentRecord{{DocID: 1, Type: models.DocTypeCode, Path: "src/only.go"}},
		Terms: map[string]map[uint32]*models.Posting{
			"only": {1: {DocID: 1, Frequency: 1, Positions: []uint32{1}}},
		},
	}
	if _, err := b.WriteIndex(context.Background(), smaller); err != nil {
		t.Fatal(err)
	}

	reader, err := b.OpenReader(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	if reader.TotalDocs() != 1 || reader.TotalTerms() != 1 {
		t.Errorf("after rewrite: %d docs / %d terms, want 1 / 1",
			reader.TotalDocs(), reader.TotalTerms())
	}
	if _, ok := reader.Lookup("shared"); ok {
		t.Error("stale term survived the rewrite")
	}
}
