package index

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"devscope/internal/models"
)

func buildTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"),
		"package main\n\nfunc connect() {\n\tconnect()\n}\n")
	writeFile(t, filepath.Join(root, "util.py"),
		"def parse(raw):\n    return raw\n")
	writeFile(t, filepath.Join(root, "server.log"),
		"2024-03-01 10:00:00 ERROR connect refused\n2024-03-01 11:00:00 INFO up\n")
	return root
}

func TestBuild(t *testing.T) {
	root := buildTestTree(t)
	b := &Builder{Workers: 2}
	idx, err := b.Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(idx.Docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(idx.Docs))
	}
	if !sort.SliceIsSorted(idx.Docs, func(i, j int) bool { return idx.Docs[i].DocID < idx.Docs[j].DocID }) {
		t.Error("docs not sorted by DocID")
	}

	byPath := make(map[string]models.DocumentRecord)
	for _, d := range idx.Docs {
		byPath[filepath.Base(d.Path)] = d
	}

	// "connect" appears in main.go (twice, once as func name) and in the log.
	list := idx.PostingList("connect")
	if len(list) != 2 {
		t.Fatalf("connect posting list has %d entries, want 2", len(list))
	}
	for _, p := range list {
		switch p.DocID {
		case byPath["main.go"].DocID:
			if p.Frequency != 2 {
				t.Errorf("main.go connect frequency = %d, want 2", p.Frequency)
			}
			if p.Meta&models.MetaInFunctionName == 0 {
				t.Errorf("main.go connect meta = %08b, want function bit", p.Meta)
			}
		case byPath["server.log"].DocID:
			if p.Meta&models.MetaLogLevelError == 0 {
				t.Errorf("server.log connect meta = %08b, want error bit", p.Meta)
			}
		default:
			t.Errorf("unexpected DocID %d in connect postings", p.DocID)
		}
	}

	// File name tokens: "util" exists only in the file name of util.py.
	utilList := idx.PostingList("util")
	if len(utilList) != 1 {
		t.Fatalf("util posting list has %d entries, want 1", len(utilList))
	}
	if utilList[0].Meta&models.MetaInFileName == 0 {
		t.Errorf("util meta = %08b, want filename bit", utilList[0].Meta)
	}
	if utilList[0].Positions[0] != 0 {
		t.Errorf("util position = %d, want 0", utilList[0].Positions[0])
	}

	// Log timestamps land on the document record.
	logDoc := byPath["server.log"]
	if logDoc.TimestampMin == 0 || logDoc.TimestampMax <= logDoc.TimestampMin {
		t.Errorf("log timestamps = %d/%d, want increasing non-zero range",
			logDoc.TimestampMin, logDoc.TimestampMax)
	}
}

func TestBuildPositionsAscending(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "list.go"), "list\nlist\nlist\n")

	b := &Builder{}
	idx, err := b.Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	list := idx.PostingList("list")
	if len(list) != 1 {
		t.Fatalf("got %d postings, want 1", len(list))
	}
	p := list[0]
	// Position 0 from the file name, then one per line.
	want := []uint32{0, 1, 2, 3}
	if len(p.Positions) != len(want) {
		t.Fatalf("positions = %v, want %v", p.Positions, want)
	}
	for i, pos := range want {
		if p.Positions[i] != pos {
			t.Errorf("positions[%d] = %d, want %d", i, p.Positions[i], pos)
		}
	}
	if p.Frequency != 4 {
		t.Errorf("frequency = %d, want 4", p.Frequency)
	}
}

func TestBuildProgress(t *testing.T) {
	root := buildTestTree(t)
	var calls int
	var last int
	b := &Builder{
		Workers:  1,
		Progress: func(indexed int, path string) { calls++; last = indexed },
	}
	if _, err := b.Build(context.Background(), root); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if calls != 3 || last != 3 {
		t.Errorf("progress calls = %d (last %d), want 3 (last 3)", calls, last)
	}
}

func TestBuildCanceled(t *testing.T) {
	root := buildTestTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &Builder{}
	if _, err := b.Build(ctx, root); err == nil {
		t.Fatal("Build with canceled context returned nil error")
	}
}

func TestBuildMissingRoot(t *testing.T) {
	b := &Builder{}
	if _, err := b.Build(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("Build on missing root returned nil error")
	}
}

func TestBuildSkipsUnreadableFiles(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root; permission bits are not enforced")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok.go"), "package ok\n")
	locked := filepath.Join(root, "locked.go")
	writeFile(t, locked, "package locked\n")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}

	b := &Builder{}
	idx, err := b.Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(idx.Docs) != 1 {
		t.Errorf("got %d docs, want 1 (unreadable file skipped)", len(idx.Docs))
	}
}
