package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

// Store implements application.Store using MongoDB.
// Transactions and change streams require a replica set deployment.
type Store struct {
	client      *mongo.Client
	restaurants *mongo.Collection
	ratings     *mongo.Collection
}

// NewStore creates a Mongo-backed directory store.
func NewStore(db *mongo.Database, collections Collections) *Store {
	return &Store{
		client:      db.Client(),
		restaurants: db.Collection(collections.Restaurants),
		ratings:     db.Collection(collections.Ratings),
	}
}

var _ application.Store = (*Store)(nil)

// EnsureIndexes creates the indexes the directory queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.restaurants.Indexes().CreateMany(ctx, restaurantIndexes()); err != nil {
		return fmt.Errorf("restaurant indexes: %w", translateError(err))
	}
	if _, err := s.ratings.Indexes().CreateMany(ctx, ratingIndexes()); err != nil {
		return fmt.Errorf("rating indexes: %w", translateError(err))
	}
	return nil
}

// Drop removes both collections. It is used by the seed command.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.ratings.Drop(ctx); err != nil {
		return translateError(err)
	}
	return translateError(s.restaurants.Drop(ctx))
}

// Query runs q with a single Find.
func (s *Store) Query(ctx context.Context, q application.Query) ([]application.RawDocument, error) {
	t, ok, err := s.resolve(q.Collection)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []application.RawDocument{}, nil
	}

	filter, opts := buildFind(t, q)
	cursor, err := t.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateError(err)
	}
	defer cursor.Close(ctx)

	docs := make([]application.RawDocument, 0)
	for cursor.Next(ctx) {
		var m bson.M
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		doc, err := toRawDocument(t, m)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, translateError(err)
	}
	return docs, nil
}

// Get returns one document by id. Ids that are not valid ObjectIDs cannot exist.
func (s *Store) Get(ctx context.Context, ref application.DocumentRef) (application.RawDocument, error) {
	return s.findOne(ctx, ref)
}

func (s *Store) findOne(ctx context.Context, ref application.DocumentRef) (application.RawDocument, error) {
	t, oid, err := s.documentTarget(ref)
	if err != nil {
		return application.RawDocument{}, err
	}
	var m bson.M
	if err := t.collection.FindOne(ctx, t.filter(bson.E{Key: fieldID, Value: oid})).Decode(&m); err != nil {
		return application.RawDocument{}, translateError(err)
	}
	return toRawDocument(t, m)
}

// Create inserts a document with a fresh ObjectID.
func (s *Store) Create(ctx context.Context, collection application.CollectionRef, fields map[string]any) (application.DocumentRef, error) {
	ref := collection.Doc(newObjectIDHex())
	if err := s.insertWithID(ctx, ref, fields); err != nil {
		return application.DocumentRef{}, err
	}
	return ref, nil
}

func (s *Store) insertWithID(ctx context.Context, ref application.DocumentRef, fields map[string]any) error {
	t, oid, err := s.documentTarget(ref)
	if err != nil {
		return err
	}
	if _, err := t.collection.InsertOne(ctx, toDocument(t, oid, fields)); err != nil {
		return translateError(err)
	}
	return nil
}

// NewID returns a fresh ObjectID in hex form.
func (s *Store) NewID() string {
	return newObjectIDHex()
}

func newObjectIDHex() string {
	return primitive.NewObjectID().Hex()
}

// Update merges fields into an existing document with $set.
func (s *Store) Update(ctx context.Context, ref application.DocumentRef, fields map[string]any) error {
	return s.set(ctx, ref, fields)
}

func (s *Store) set(ctx context.Context, ref application.DocumentRef, fields map[string]any) error {
	t, oid, err := s.documentTarget(ref)
	if err != nil {
		return err
	}
	res, err := t.collection.UpdateOne(ctx,
		t.filter(bson.E{Key: fieldID, Value: oid}),
		bson.M{"$set": toSetPayload(fields)},
	)
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
	}
	return nil
}

func (s *Store) documentTarget(ref application.DocumentRef) (target, primitive.ObjectID, error) {
	t, ok, err := s.resolve(ref.Collection)
	if err != nil {
		return target{}, primitive.NilObjectID, err
	}
	oid, hexErr := primitive.ObjectIDFromHex(ref.ID)
	if !ok || hexErr != nil {
		return target{}, primitive.NilObjectID, fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
	}
	return t, oid, nil
}

// Ping checks connectivity to the primary.
func (s *Store) Ping(ctx context.Context) error {
	return translateError(s.client.Ping(ctx, nil))
}
