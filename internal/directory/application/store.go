package application

import (
	"context"
	"errors"
	"fmt"
)

// ErrTransactionConflict is returned by Store.RunTransaction when the store's
// optimistic concurrency check rejected the commit. The transaction had no effect
// and may be retried from the start.
var ErrTransactionConflict = errors.New("transaction conflict")

// ErrDocumentExists is returned when a transaction creates a document at a
// reference that is already taken.
var ErrDocumentExists = errors.New("document already exists")

const (
	CollectionRestaurants = "restaurants"
	CollectionRatings     = "ratings"

	FieldName       = "name"
	FieldCategory   = "category"
	FieldCity       = "city"
	FieldPrice      = "price"
	FieldPhoto      = "photo"
	FieldAvgRating  = "avgRating"
	FieldNumRatings = "numRatings"
	FieldTimestamp  = "timestamp"
	FieldRating     = "rating"
	FieldText       = "text"
	FieldUserID     = "userId"
	FieldUserName   = "userName"
)

// CollectionRef names a collection. Subcollections carry the id of their parent document.
type CollectionRef struct {
	Parent *DocumentRef
	Name   string
}

// DocumentRef names one document inside a collection.
type DocumentRef struct {
	Collection CollectionRef
	ID         string
}

// Doc returns a reference to the document id inside c.
func (c CollectionRef) Doc(id string) DocumentRef {
	return DocumentRef{Collection: c, ID: id}
}

// Sub returns the named subcollection of d.
func (d DocumentRef) Sub(name string) CollectionRef {
	parent := d
	return CollectionRef{Parent: &parent, Name: name}
}

func (c CollectionRef) String() string {
	if c.Parent == nil {
		return c.Name
	}
	return fmt.Sprintf("%s/%s", c.Parent.String(), c.Name)
}

func (d DocumentRef) String() string {
	return fmt.Sprintf("%s/%s", d.Collection.String(), d.ID)
}

// Restaurants is the root restaurant collection.
func Restaurants() CollectionRef {
	return CollectionRef{Name: CollectionRestaurants}
}

// RatingsOf is the review subcollection of one restaurant.
func RatingsOf(restaurantID string) CollectionRef {
	return Restaurants().Doc(restaurantID).Sub(CollectionRatings)
}

// Direction of an ordering clause.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Predicate is an equality restriction on a single field.
type Predicate struct {
	Field string
	Value any
}

// Ordering sorts the result set by one field.
type Ordering struct {
	Field     string
	Direction Direction
}

// Query is a predicate chain applied to a collection scan. Predicates are kept
// in the order they were added; stores apply all of them conjunctively.
type Query struct {
	Collection CollectionRef
	Predicates []Predicate
	Orderings  []Ordering
	Limit      int
}

// NewQuery starts an unrestricted scan of c.
func NewQuery(c CollectionRef) Query {
	return Query{Collection: c}
}

// Where returns a copy of q with an equality predicate appended.
func (q Query) Where(field string, value any) Query {
	q.Predicates = append(append([]Predicate(nil), q.Predicates...), Predicate{Field: field, Value: value})
	return q
}

// OrderBy returns a copy of q with an ordering clause appended.
func (q Query) OrderBy(field string, dir Direction) Query {
	q.Orderings = append(append([]Ordering(nil), q.Orderings...), Ordering{Field: field, Direction: dir})
	return q
}

// WithLimit returns a copy of q capped at n documents.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// RawDocument is a stored document as the store returns it: its id and its
// fields in the store's native representation.
type RawDocument struct {
	ID     string
	Fields map[string]any
}

// ListenEvent carries one full result set of a live query, or the error that ended it.
type ListenEvent struct {
	Documents []RawDocument
	Err       error
}

// Listener is a standing query. Events re-deliver the full matching result set
// whenever a relevant mutation commits; the first event is the current result set.
type Listener interface {
	Events() <-chan ListenEvent
	// Stop releases the listener. Events is closed once the listener has shut down.
	Stop()
}

// Transaction is a read-modify-write unit. Writes are buffered until commit.
// If a document that was read through the transaction and is written by it
// changed before commit, the commit fails with ErrTransactionConflict. Stores
// may fence every read, not only the written ones.
type Transaction interface {
	Get(ctx context.Context, ref DocumentRef) (RawDocument, error)
	// Create inserts a document at ref, usually minted with Store.NewID. The
	// commit fails with ErrDocumentExists if ref is already taken.
	Create(ref DocumentRef, fields map[string]any) error
	Update(ref DocumentRef, fields map[string]any) error
}

// Store is the document store capability the directory depends on.
// Point reads of missing documents fail with domain.ErrNotFound; transport
// failures are wrapped with domain.ErrStoreUnavailable.
type Store interface {
	Query(ctx context.Context, q Query) ([]RawDocument, error)
	Get(ctx context.Context, ref DocumentRef) (RawDocument, error)
	Create(ctx context.Context, collection CollectionRef, fields map[string]any) (DocumentRef, error)
	Update(ctx context.Context, ref DocumentRef, fields map[string]any) error
	// NewID returns a fresh document id in the store's id format.
	NewID() string
	// RunTransaction runs fn once inside a transaction and commits it. It does not retry.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
	Listen(ctx context.Context, q Query) (Listener, error)
}
