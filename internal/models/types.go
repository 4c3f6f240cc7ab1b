// Package models holds the value types shared by the indexer, the stores
// and the query layer.
package models

// DocType distinguishes source code from log files.
type DocType uint8

const (
	DocTypeCode DocType = 0
	DocTypeLog  DocType = 1
)

// Meta bits recorded per term occurrence. A posting carries the OR of the
// bits of every occurrence in its document.
const (
	MetaNone           uint8 = 0
	MetaInFileName     uint8 = 1 << 0
	MetaInFunctionName uint8 = 1 << 1
	MetaLogLevelError  uint8 = 1 << 2
	MetaLogLevelWarn   uint8 = 1 << 3
)

// DocumentRecord is the per-file metadata stored in the document table.
// Timestamps are Unix seconds extracted from log lines; zero for code.
type DocumentRecord struct {
	DocID        uint32
	Type         DocType
	Path         string
	TimestampMin int64
	TimestampMax int64
}

// Posting is one document's entry in a term's posting list. Positions are
// 1-based line numbers, with 0 reserved for file name tokens.
type Posting struct {
	DocID     uint32
	Frequency uint32
	Positions []uint32
	Meta      uint8
}

// LexiconEntry locates a term's posting list inside the postings artifact.
type LexiconEntry struct {
	Term         string
	DocFreq      uint32
	Offset       uint64
	PostingCount uint32
}

// Index artifact names.
const (
	DocsFileName     = "docs.bin"
	IndexFileName    = "index.bin"
	LexiconFileName  = "lexicon.bin"
	ManifestFileName = "manifest.json"
)

// DefaultIndexDir is where artifacts land unless the user points elsewhere.
const DefaultIndexDir = ".devscope"
