package mongo

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kochabx/eplq/core/crypto/geocrypt"
	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/store"
)

type pointDocument struct {
	ID            string    `bson:"_id"`
	Ciphertext    []byte    `bson:"ciphertext"`
	SpatialIndex  string    `bson:"spatial_index"`
	PredicateHash string    `bson:"predicate_hash"`
	IV            []byte    `bson:"iv"`
	Category      string    `bson:"category,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
}

func toDocument(p store.StoredPoint) pointDocument {
	return pointDocument{
		ID:            p.ID,
		Ciphertext:    p.Point.Ciphertext,
		SpatialIndex:  p.Point.SpatialIndex,
		PredicateHash: p.Point.PredicateHash,
		IV:            p.Point.IV,
		Category:      store.NormalizeCategory(p.Category),
		CreatedAt:     p.Point.CreatedAt,
	}
}

func (d *pointDocument) point() *geocrypt.EncryptedPoint {
	return &geocrypt.EncryptedPoint{
		Ciphertext:    d.Ciphertext,
		SpatialIndex:  d.SpatialIndex,
		PredicateHash: d.PredicateHash,
		IV:            d.IV,
		CreatedAt:     d.CreatedAt.UTC(),
	}
}

// candidateQuery builds the find filter for f
func candidateQuery(f store.CandidateFilter) bson.D {
	q := bson.D{}
	if f.Category != "" {
		q = append(q, bson.E{Key: "category", Value: f.Category})
	}
	if len(f.IndexPrefixes) > 0 {
		or := make(bson.A, 0, len(f.IndexPrefixes))
		for _, p := range f.IndexPrefixes {
			// anchored prefix regexes can use the spatial_index index
			or = append(or, bson.D{{Key: "spatial_index", Value: bson.D{
				{Key: "$regex", Value: "^" + regexp.QuoteMeta(p)},
			}}})
		}
		q = append(q, bson.E{Key: "$or", Value: or})
	}
	return q
}

// PointStore implements store.PointStore on a collection
type PointStore struct {
	coll *mongo.Collection
}

var _ store.PointStore = (*PointStore)(nil)

// NewPointStore opens the points collection and ensures its indexes
func NewPointStore(ctx context.Context, c *Client) (*PointStore, error) {
	coll := c.Database().Collection(c.config.PointsCollection)

	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "spatial_index", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "mongo.NewPointStore", "failed to create indexes")
	}
	return &PointStore{coll: coll}, nil
}

func (s *PointStore) Insert(ctx context.Context, p store.StoredPoint) (string, error) {
	const op = "mongo.Insert"

	if p.Point == nil {
		return "", errors.InvalidArgument(op, "point is nil")
	}
	if p.ID == "" {
		p.ID = store.NewID()
	}
	if _, err := s.coll.InsertOne(ctx, toDocument(p)); err != nil {
		return "", errors.Wrap(err, errors.KindInternal, op, "failed to insert point")
	}
	return p.ID, nil
}

func (s *PointStore) FetchCandidates(ctx context.Context, filter store.CandidateFilter) ([]*geocrypt.EncryptedPoint, error) {
	const op = "mongo.FetchCandidates"
	filter = filter.Normalize()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(filter.Limit))

	cursor, err := s.coll.Find(ctx, candidateQuery(filter), opts)
	if err != nil {
		return nil, errors.Retrieval(op, err)
	}
	defer cursor.Close(ctx)

	out := make([]*geocrypt.EncryptedPoint, 0, min(filter.Limit, 64))
	for cursor.Next(ctx) {
		var doc pointDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Retrieval(op, err)
		}
		out = append(out, doc.point())
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Retrieval(op, err)
	}
	return out, nil
}

func (s *PointStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, errors.Retrieval("mongo.Count", err)
	}
	return n, nil
}

// Close is a no-op; the Client owns the connection
func (s *PointStore) Close(context.Context) error {
	return nil
}
