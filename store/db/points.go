package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kochabx/eplq/core/crypto/geocrypt"
	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/store"
)

// PointModel is one sealed point row
type PointModel struct {
	ID            string    `gorm:"primaryKey;size:36"`
	Ciphertext    []byte    `gorm:"not null"`
	SpatialIndex  string    `gorm:"size:16;index"`
	PredicateHash string    `gorm:"size:16;index"`
	IV            []byte    `gorm:"not null"`
	Category      string    `gorm:"size:64;index:idx_category_created,priority:1"`
	CreatedAt     time.Time `gorm:"index:idx_category_created,priority:2;index"`
}

func toModel(p store.StoredPoint) *PointModel {
	return &PointModel{
		ID:            p.ID,
		Ciphertext:    p.Point.Ciphertext,
		SpatialIndex:  p.Point.SpatialIndex,
		PredicateHash: p.Point.PredicateHash,
		IV:            p.Point.IV,
		Category:      store.NormalizeCategory(p.Category),
		CreatedAt:     p.Point.CreatedAt,
	}
}

func (m *PointModel) point() *geocrypt.EncryptedPoint {
	return &geocrypt.EncryptedPoint{
		Ciphertext:    m.Ciphertext,
		SpatialIndex:  m.SpatialIndex,
		PredicateHash: m.PredicateHash,
		IV:            m.IV,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

// PointStore implements store.PointStore on a single table
type PointStore struct {
	db    *gorm.DB
	table string
}

var _ store.PointStore = (*PointStore)(nil)

// NewPointStore migrates the points table
func NewPointStore(ctx context.Context, c *Client) (*PointStore, error) {
	s := &PointStore{db: c.DB(), table: c.config.Table}
	if err := s.tx(ctx).AutoMigrate(&PointModel{}); err != nil {
		return nil, errors.Wrap(err, errors.KindInitialization, "db.NewPointStore", "migrate %s", s.table)
	}
	return s, nil
}

func (s *PointStore) tx(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.table)
}

func (s *PointStore) Insert(ctx context.Context, p store.StoredPoint) (string, error) {
	const op = "db.Insert"

	if p.Point == nil {
		return "", errors.InvalidArgument(op, "point is nil")
	}
	if p.ID == "" {
		p.ID = store.NewID()
	}
	if err := s.tx(ctx).Create(toModel(p)).Error; err != nil {
		return "", errors.Wrap(err, errors.KindInternal, op, "failed to insert point")
	}
	return p.ID, nil
}

func (s *PointStore) FetchCandidates(ctx context.Context, filter store.CandidateFilter) ([]*geocrypt.EncryptedPoint, error) {
	filter = filter.Normalize()

	q := s.tx(ctx)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if len(filter.IndexPrefixes) > 0 {
		// index characters are never LIKE wildcards
		group := s.db.Where("spatial_index LIKE ?", filter.IndexPrefixes[0]+"%")
		for _, p := range filter.IndexPrefixes[1:] {
			group = group.Or("spatial_index LIKE ?", p+"%")
		}
		q = q.Where(group)
	}

	var rows []PointModel
	err := q.Order("created_at DESC").Order("id DESC").Limit(filter.Limit).Find(&rows).Error
	if err != nil {
		return nil, errors.Retrieval("db.FetchCandidates", err)
	}

	out := make([]*geocrypt.EncryptedPoint, len(rows))
	for i := range rows {
		out[i] = rows[i].point()
	}
	return out, nil
}

func (s *PointStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.tx(ctx).Count(&n).Error; err != nil {
		return 0, errors.Retrieval("db.Count", err)
	}
	return n, nil
}

// Close is a no-op; the Client owns the pool
func (s *PointStore) Close(context.Context) error {
	return nil
}
