package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"devscope/internal/index"
	"devscope/internal/models"
)

// KeyGen generates the Redis key names for a named index.
type KeyGen struct {
	Name string
}

// Docs returns the document table hash key, e.g. ds:default:docs.
func (k KeyGen) Docs() string {
	return fmt.Sprintf("ds:%s:docs", k.Name)
}

// Lexicon returns the lexicon hash key, e.g. ds:default:lexicon.
func (k KeyGen) Lexicon() string {
	return fmt.Sprintf("ds:%s:lexicon", k.Name)
}

// Manifest returns the manifest key, e.g. ds:default:manifest.
func (k KeyGen) Manifest() string {
	return fmt.Sprintf("ds:%s:manifest", k.Name)
}

// Term returns the posting list key for a term, e.g. ds:default:term:main.
func (k KeyGen) Term(term string) string {
	return fmt.Sprintf("ds:%s:term:%s", k.Name, term)
}

// TermPrefix returns the SCAN prefix covering every posting list key.
func (k KeyGen) TermPrefix() string {
	return fmt.Sprintf("ds:%s:term:", k.Name)
}

// writeBatch is how many pipelined commands are flushed at once.
const writeBatch = 512

// RedisBackend stores the same binary records as the file backend in
// Redis: the document table and lexicon as hashes of encoded records, one
// posting list value per term.
type RedisBackend struct {
	rdb  *redis.Client
	keys KeyGen
}

// OpenRedis connects to uri and pings the server before returning.
func OpenRedis(ctx context.Context, uri, name string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URI: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisBackend{rdb: rdb, keys: KeyGen{Name: name}}, nil
}

func (b *RedisBackend) Describe() string {
	return fmt.Sprintf("redis (%s)", b.keys.Name)
}

func (b *RedisBackend) Close() error { return b.rdb.Close() }

// WriteIndex drops stale term keys, then pipelines the new index in
// batches.
func (b *RedisBackend) WriteIndex(ctx context.Context, idx *index.Index) (Manifest, error) {
	if err := b.dropTermKeys(ctx); err != nil {
		return Manifest{}, fmt.Errorf("dropping stale term keys: %w", err)
	}

	pipe := b.rdb.Pipeline()
	pending := 0
	flush := func() error {
		if pending == 0 {
			return nil
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		pipe = b.rdb.Pipeline()
		pending = 0
		return nil
	}

	pipe.Del(ctx, b.keys.Docs(), b.keys.Lexicon(), b.keys.Manifest())
	pending++

	for _, rec := range idx.Docs {
		var buf bytes.Buffer
		if err := writeDocRecord(&buf, rec); err != nil {
			return Manifest{}, err
		}
		field := strconv.FormatUint(uint64(rec.DocID), 10)
		pipe.HSet(ctx, b.keys.Docs(), field, buf.Bytes())
		pending++
		if pending >= writeBatch {
			if err := flush(); err != nil {
				return Manifest{}, fmt.Errorf("writing documents: %w", err)
			}
		}
	}

	terms := idx.SortedTerms()
	for _, term := range terms {
		list := idx.PostingList(term)
		var plBuf bytes.Buffer
		for _, p := range list {
			if err := writePosting(&plBuf, p); err != nil {
				return Manifest{}, err
			}
		}
		entry := models.LexiconEntry{
			Term:         term,
			DocFreq:      uint32(len(list)),
			PostingCount: uint32(len(list)),
		}
		var entryBuf bytes.Buffer
		if err := writeLexiconEntry(&entryBuf, entry); err != nil {
			return Manifest{}, err
		}
		pipe.Set(ctx, b.keys.Term(term), plBuf.Bytes(), 0)
		pipe.HSet(ctx, b.keys.Lexicon(), term, entryBuf.Bytes())
		pending += 2
		if pending >= writeBatch {
			if err := flush(); err != nil {
				return Manifest{}, fmt.Errorf("writing terms: %w", err)
			}
		}
	}

	man := Manifest{
		BuildID:    uuid.NewString(),
		Root:       idx.Root,
		BuiltAt:    time.Now().UTC(),
		TotalDocs:  len(idx.Docs),
		TotalTerms: len(terms),
	}
	data, err := json.Marshal(man)
	if err != nil {
		return Manifest{}, err
	}
	pipe.Set(ctx, b.keys.Manifest(), data, 0)
	pending++
	if err := flush(); err != nil {
		return Manifest{}, fmt.Errorf("writing manifest: %w", err)
	}
	return man, nil
}

func (b *RedisBackend) dropTermKeys(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := b.rdb.Scan(ctx, cursor, b.keys.TermPrefix()+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := b.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// OpenReader loads the document and lexicon hashes into memory; posting
// lists stay in Redis until a query asks for them.
func (b *RedisBackend) OpenReader(ctx context.Context) (*Reader, error) {
	rawDocs, err := b.rdb.HGetAll(ctx, b.keys.Docs()).Result()
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}
	if len(rawDocs) == 0 {
		return nil, ErrNoIndex
	}
	docs := make(map[uint32]models.DocumentRecord, len(rawDocs))
	for _, raw := range rawDocs {
		rec, err := readDocRecord(bytes.NewReader([]byte(raw)))
		if err != nil {
			return nil, fmt.Errorf("decoding document record: %w", err)
		}
		docs[rec.DocID] = rec
	}

	rawLex, err := b.rdb.HGetAll(ctx, b.keys.Lexicon()).Result()
	if err != nil {
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}
	lexicon := make(map[string]models.LexiconEntry, len(rawLex))
	for _, raw := range rawLex {
		entry, err := readLexiconEntry(bytes.NewReader([]byte(raw)))
		if err != nil {
			return nil, fmt.Errorf("decoding lexicon entry: %w", err)
		}
		lexicon[entry.Term] = entry
	}

	return NewReader(docs, lexicon, &redisSource{rdb: b.rdb, keys: b.keys}), nil
}

// ReadManifest returns the stored manifest, or ErrNoIndex.
func (b *RedisBackend) ReadManifest(ctx context.Context) (Manifest, error) {
	data, err := b.rdb.Get(ctx, b.keys.Manifest()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Manifest{}, ErrNoIndex
	}
	if err != nil {
		return Manifest{}, err
	}
	var man Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return Manifest{}, fmt.Errorf("decoding manifest: %w", err)
	}
	return man, nil
}

// redisSource fetches posting lists by term key. It borrows the backend's
// client, so Close is a no-op.
type redisSource struct {
	rdb  *redis.Client
	keys KeyGen
}

func (s *redisSource) Postings(ctx context.Context, entry models.LexiconEntry) ([]models.Posting, error) {
	data, err := s.rdb.Get(ctx, s.keys.Term(entry.Term)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return readPostingList(bytes.NewReader(data), entry.PostingCount)
}

func (s *redisSource) Close() error { return nil }
