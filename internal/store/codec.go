package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"devscope/internal/models"
)

// Artifact headers. Bumping the version invalidates older readers.
const (
	docsMagic    = "DEVSCOPE_DOCS"
	indexMagic   = "DEVSCOPE_IDX"
	lexiconMagic = "DEVSCOPE_LEX"

	formatVersion = 1
)

// headerSize is the byte length of a magic string plus its version byte.
func headerSize(magic string) uint64 {
	return uint64(len(magic) + 1)
}

func writeHeader(w io.Writer, magic string) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	_, err := w.Write([]byte{formatVersion})
	return err
}

func verifyHeader(r io.Reader, magic, artifact string) error {
	buf := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("%s: reading header: %w", artifact, err)
	}
	if string(buf[:len(magic)]) != magic {
		return fmt.Errorf("%s: bad magic, not a devscope artifact", artifact)
	}
	if v := buf[len(magic)]; v != formatVersion {
		return fmt.Errorf("%s: unsupported format version %d", artifact, v)
	}
	return nil
}

// Document record layout: DocID u32, Type u8, PathLen u16, Path bytes,
// TimestampMin i64, TimestampMax i64. All integers little-endian.

func writeDocRecord(w io.Writer, rec models.DocumentRecord) error {
	if len(rec.Path) > math.MaxUint16 {
		return fmt.Errorf("path too long: %d bytes", len(rec.Path))
	}
	buf := make([]byte, 0, 4+1+2+len(rec.Path)+8+8)
	buf = binary.LittleEndian.AppendUint32(buf, rec.DocID)
	buf = append(buf, byte(rec.Type))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(rec.Path)))
	buf = append(buf, rec.Path...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.TimestampMin))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.TimestampMax))
	_, err := w.Write(buf)
	return err
}

// readDocRecord returns io.EOF untouched when the stream ends cleanly at a
// record boundary; any mid-record end is an error.
func readDocRecord(r io.Reader) (models.DocumentRecord, error) {
	var rec models.DocumentRecord
	if err := binary.Read(r, binary.LittleEndian, &rec.DocID); err != nil {
		return rec, err
	}
	var typ uint8
	if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
		return rec, truncated("document record", err)
	}
	rec.Type = models.DocType(typ)
	var pathLen uint16
	if err := binary.Read(r, binary.LittleEndian, &pathLen); err != nil {
		return rec, truncated("document record", err)
	}
	path := make([]byte, pathLen)
	if _, err := io.ReadFull(r, path); err != nil {
		return rec, truncated("document record", err)
	}
	rec.Path = string(path)
	if err := binary.Read(r, binary.LittleEndian, &rec.TimestampMin); err != nil {
		return rec, truncated("document record", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &rec.TimestampMax); err != nil {
		return rec, truncated("document record", err)
	}
	return rec, nil
}

// Posting layout: DocID u32, Frequency u32, Meta u8, PositionCount u32,
// then PositionCount u32 positions.

// postingSize is the encoded byte length of one posting.
func postingSize(p *models.Posting) uint64 {
	return uint64(13 + 4*len(p.Positions))
}

func writePosting(w io.Writer, p *models.Posting) error {
	buf := make([]byte, 0, postingSize(p))
	buf = binary.LittleEndian.AppendUint32(buf, p.DocID)
	buf = binary.LittleEndian.AppendUint32(buf, p.Frequency)
	buf = append(buf, p.Meta)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Positions)))
	for _, pos := range p.Positions {
		buf = binary.LittleEndian.AppendUint32(buf, pos)
	}
	_, err := w.Write(buf)
	return err
}

func readPostingList(r io.Reader, count uint32) ([]models.Posting, error) {
	postings := make([]models.Posting, 0, count)
	header := make([]byte, 13)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, header); err != nil {
			return nil, truncated("posting list", err)
		}
		p := models.Posting{
			DocID:     binary.LittleEndian.Uint32(header[0:4]),
			Frequency: binary.LittleEndian.Uint32(header[4:8]),
			Meta:      header[8],
		}
		posCount := binary.LittleEndian.Uint32(header[9:13])
		p.Positions = make([]uint32, posCount)
		if err := binary.Read(r, binary.LittleEndian, p.Positions); err != nil {
			return nil, truncated("posting list", err)
		}
		postings = append(postings, p)
	}
	return postings, nil
}

// Lexicon entry layout: TermLen u16, term bytes, DocFreq u32, Offset u64,
// PostingCount u32.

func writeLexiconEntry(w io.Writer, e models.LexiconEntry) error {
	term := []byte(e.Term)
	if len(term) > math.MaxUint16 {
		term = term[:math.MaxUint16]
	}
	buf := make([]byte, 0, 2+len(term)+4+8+4)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(term)))
	buf = append(buf, term...)
	buf = binary.LittleEndian.AppendUint32(buf, e.DocFreq)
	buf = binary.LittleEndian.AppendUint64(buf, e.Offset)
	buf = binary.LittleEndian.AppendUint32(buf, e.PostingCount)
	_, err := w.Write(buf)
	return err
}

// readLexiconEntry returns io.EOF untouched at a clean entry boundary.
func readLexiconEntry(r io.Reader) (models.LexiconEntry, error) {
	var e models.LexiconEntry
	var termLen uint16
	if err := binary.Read(r, binary.LittleEndian, &termLen); err != nil {
		return e, err
	}
	term := make([]byte, termLen)
	if _, err := io.ReadFull(r, term); err != nil {
		return e, truncated("lexicon entry", err)
	}
	e.Term = string(term)
	rest := make([]byte, 16)
	if _, err := io.ReadFull(r, rest); err != nil {
		return e, truncated("lexicon entry", err)
	}
	e.DocFreq = binary.LittleEndian.Uint32(rest[0:4])
	e.Offset = binary.LittleEndian.Uint64(rest[4:12])
	e.PostingCount = binary.LittleEndian.Uint32(rest[12:16])
	return e, nil
}

func truncated(what string, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%s truncated: %w", what, err)
}
