package mongo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
)

// Collections names the MongoDB collections backing the directory.
// Reviews of a restaurant are stored flat in Ratings with a restaurantId field
// pointing at their parent.
type Collections struct {
	Restaurants string
	Ratings     string
}

const (
	fieldID           = "_id"
	fieldRestaurantID = "restaurantId"
)

// target is a resolved collection reference: the Mongo collection plus the
// filter that scopes it to one parent document.
type target struct {
	collection  *mongo.Collection
	scope       bson.D
	parentField string
	parentID    primitive.ObjectID
}

func (t target) filter(extra ...bson.E) bson.D {
	f := make(bson.D, 0, len(t.scope)+len(extra))
	f = append(f, t.scope...)
	return append(f, extra...)
}

// resolve maps a collection reference onto Mongo. ok is false when the
// reference names a parent id that cannot exist, so the collection is empty;
// the returned target still names the backing collection.
func (s *Store) resolve(c application.CollectionRef) (target, bool, error) {
	switch {
	case c.Parent == nil && c.Name == application.CollectionRestaurants:
		return target{collection: s.restaurants}, true, nil
	case c.Parent != nil && c.Name == application.CollectionRatings &&
		c.Parent.Collection.Parent == nil && c.Parent.Collection.Name == application.CollectionRestaurants:
		parentID, err := primitive.ObjectIDFromHex(c.Parent.ID)
		if err != nil {
			return target{collection: s.ratings}, false, nil
		}
		return target{
			collection:  s.ratings,
			scope:       bson.D{{Key: fieldRestaurantID, Value: parentID}},
			parentField: fieldRestaurantID,
			parentID:    parentID,
		}, true, nil
	default:
		return target{}, false, fmt.Errorf("unsupported collection %q", c.String())
	}
}

// buildFind turns a query into a Mongo filter and find options. Documents
// lacking an ordering field are excluded, and ties are broken by _id.
func buildFind(t target, q application.Query) (bson.D, *options.FindOptions) {
	filter := t.filter()
	for _, p := range q.Predicates {
		filter = append(filter, bson.E{Key: p.Field, Value: toBSONValue(p.Value)})
	}

	sort := bson.D{}
	for _, o := range q.Orderings {
		filter = append(filter, bson.E{Key: o.Field, Value: bson.M{"$exists": true, "$ne": nil}})
		dir := 1
		if o.Direction == application.Descending {
			dir = -1
		}
		sort = append(sort, bson.E{Key: o.Field, Value: dir})
	}
	sort = append(sort, bson.E{Key: fieldID, Value: 1})

	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return filter, opts
}

// toDocument builds the stored form of fields for a new document.
func toDocument(t target, id primitive.ObjectID, fields map[string]any) bson.M {
	doc := bson.M{fieldID: id}
	for k, v := range fields {
		doc[k] = toBSONValue(v)
	}
	if t.parentField != "" {
		doc[t.parentField] = t.parentID
	}
	return doc
}

func toSetPayload(fields map[string]any) bson.M {
	payload := make(bson.M, len(fields))
	for k, v := range fields {
		payload[k] = toBSONValue(v)
	}
	return payload
}

// toBSONValue stores times as BSON dates with millisecond precision.
func toBSONValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return primitive.NewDateTimeFromTime(t)
	}
	return v
}

// toRawDocument strips the Mongo bookkeeping fields off a decoded document.
// Dates stay primitive.DateTime; the projector materializes them.
func toRawDocument(t target, m bson.M) (application.RawDocument, error) {
	oid, ok := m[fieldID].(primitive.ObjectID)
	if !ok {
		return application.RawDocument{}, fmt.Errorf("document without ObjectID _id: %v", m[fieldID])
	}
	fields := make(map[string]any, len(m))
	for k, v := range m {
		if k == fieldID || (t.parentField != "" && k == t.parentField) {
			continue
		}
		fields[k] = v
	}
	return application.RawDocument{ID: oid.Hex(), Fields: fields}, nil
}

func restaurantIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: application.FieldAvgRating, Value: -1}},
			Options: options.Index().SetName("idx_restaurant_avgRating"),
		},
		{
			Keys:    bson.D{{Key: application.FieldNumRatings, Value: -1}},
			Options: options.Index().SetName("idx_restaurant_numRatings"),
		},
		{
			Keys: bson.D{
				{Key: application.FieldCategory, Value: 1},
				{Key: application.FieldCity, Value: 1},
				{Key: application.FieldPrice, Value: 1},
				{Key: application.FieldAvgRating, Value: -1},
			},
			Options: options.Index().SetName("idx_restaurant_filters_avgRating"),
		},
	}
}

func ratingIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: fieldRestaurantID, Value: 1}, {Key: application.FieldTimestamp, Value: -1}},
			Options: options.Index().SetName("idx_rating_restaurant_timestamp"),
		},
	}
}
