// Package leveldb is an embedded PointStore.
//
// Layout:
//
//	pt:<id>                 json of the sealed point
//	cat:<category>\x00<id>  empty, secondary index on the published category
//
// Ids are time ordered, so iterating a prefix backwards yields newest first.
package leveldb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/kochabx/eplq/core/crypto/geocrypt"
	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/store"
)

const (
	pointPrefix    = "pt:"
	categoryPrefix = "cat:"
)

// Config for the embedded store
type Config struct {
	Path string `json:"path" default:"data/points"`
	// InMemory keeps everything in memory, ignoring Path
	InMemory bool `json:"in_memory"`
	// NoSync skips the fsync after every write
	NoSync bool `json:"no_sync"`
}

// Store implements store.PointStore on goleveldb
type Store struct {
	db   *leveldb.DB
	sync bool
}

var _ store.PointStore = (*Store)(nil)

type record struct {
	Point    *geocrypt.EncryptedPoint `json:"point"`
	Category string                   `json:"category,omitempty"`
}

// Open opens or creates the store described by c
func Open(c Config) (*Store, error) {
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	var (
		db  *leveldb.DB
		err error
	)
	if c.InMemory {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(c.Path, nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "leveldb.Open", "failed to open %s", c.Path)
	}

	return &Store{db: db, sync: !c.NoSync}, nil
}

// OpenMemory opens an empty in-memory store
func OpenMemory() (*Store, error) {
	return Open(Config{InMemory: true, NoSync: true})
}

func pointKey(id string) []byte {
	return []byte(pointPrefix + id)
}

func categoryKey(category, id string) []byte {
	return []byte(categoryPrefix + category + "\x00" + id)
}

func (s *Store) Insert(ctx context.Context, p store.StoredPoint) (string, error) {
	const op = "leveldb.Insert"

	if p.Point == nil {
		return "", errors.InvalidArgument(op, "point is nil")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = store.NewID()
	}
	category := store.NormalizeCategory(p.Category)

	data, err := json.Marshal(record{Point: p.Point, Category: category})
	if err != nil {
		return "", errors.Internal(op, err)
	}

	batch := new(leveldb.Batch)
	batch.Put(pointKey(p.ID), data)
	if category != "" {
		batch.Put(categoryKey(category, p.ID), nil)
	}
	if err := s.db.Write(batch, &opt.WriteOptions{Sync: s.sync}); err != nil {
		return "", errors.Wrap(err, errors.KindInternal, op, "failed to write point")
	}
	return p.ID, nil
}

func (s *Store) FetchCandidates(ctx context.Context, filter store.CandidateFilter) ([]*geocrypt.EncryptedPoint, error) {
	const op = "leveldb.FetchCandidates"
	filter = filter.Normalize()

	prefix := []byte(pointPrefix)
	if filter.Category != "" {
		prefix = []byte(categoryPrefix + filter.Category + "\x00")
	}

	it := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	out := make([]*geocrypt.EncryptedPoint, 0, min(filter.Limit, 64))
	for ok := it.Last(); ok && len(out) < filter.Limit; ok = it.Prev() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Retrieval(op, err)
		}

		value := it.Value()
		if filter.Category != "" {
			id := string(it.Key()[len(prefix):])
			v, err := s.db.Get(pointKey(id), nil)
			if err != nil {
				return nil, errors.Retrieval(op, err).WithMetadata(map[string]string{"id": id})
			}
			value = v
		}

		var rec record
		if err := json.Unmarshal(value, &rec); err != nil {
			return nil, errors.Retrieval(op, err)
		}
		if !filter.Match(store.StoredPoint{Point: rec.Point, Category: rec.Category}) {
			continue
		}
		out = append(out, rec.Point)
	}
	if err := it.Error(); err != nil {
		return nil, errors.Retrieval(op, err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(pointPrefix)), &opt.ReadOptions{DontFillCache: true})
	defer it.Release()

	var n int64
	for it.Next() {
		n++
	}
	if err := it.Error(); err != nil {
		return 0, errors.Retrieval("leveldb.Count", err)
	}
	return n, nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}
