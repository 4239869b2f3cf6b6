package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

// Timestamp is the store-native temporal value. time.Time fields are stored as
// Timestamp and read back as such, the same way a hosted store hands back its own
// timestamp type.
type Timestamp struct {
	t time.Time
}

// Time returns the timestamp as a time.Time in UTC.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

type document struct {
	fields  map[string]any
	version uint64
}

// Store is an in-process implementation of application.Store.
//
// Every committed write bumps the document version. Transactions record the
// version of each document they read and fail with
// application.ErrTransactionConflict if any of them changed before commit.
// Listeners are re-run after every commit that touches their collection.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]*document
	listeners   map[*listener]struct{}
	version     uint64
	newID       func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the default UUID document ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]map[string]*document),
		listeners:   make(map[*listener]struct{}),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ application.Store = (*Store)(nil)

// Query runs q against the current state. Documents missing a field named in an
// ordering clause are excluded from the result.
func (s *Store) Query(ctx context.Context, q application.Query) ([]application.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(q), nil
}

func (s *Store) queryLocked(q application.Query) []application.RawDocument {
	docs := s.collections[q.Collection.String()]
	result := make([]application.RawDocument, 0, len(docs))
	for id, doc := range docs {
		if !matches(doc.fields, q) {
			continue
		}
		result = append(result, application.RawDocument{ID: id, Fields: copyFields(doc.fields)})
	}

	sort.SliceStable(result, func(i, j int) bool {
		for _, o := range q.Orderings {
			c := compareValues(result[i].Fields[o.Field], result[j].Fields[o.Field])
			if c == 0 {
				continue
			}
			if o.Direction == application.Descending {
				return c > 0
			}
			return c < 0
		}
		return result[i].ID < result[j].ID
	})

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result
}

// Get returns one document or an error matching domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, ref application.DocumentRef) (application.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return application.RawDocument{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.lookupLocked(ref)
	if !ok {
		return application.RawDocument{}, fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
	}
	return application.RawDocument{ID: ref.ID, Fields: copyFields(doc.fields)}, nil
}

// Create inserts a document with a generated id.
func (s *Store) Create(ctx context.Context, collection application.CollectionRef, fields map[string]any) (application.DocumentRef, error) {
	if err := ctx.Err(); err != nil {
		return application.DocumentRef{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := collection.Doc(s.newID())
	s.putLocked(ref, normalizeFields(fields))
	s.notifyLocked(collection.String())
	return ref, nil
}

// NewID returns an id from the store's generator.
func (s *Store) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newID()
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, ref application.DocumentRef, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mergeLocked(ref, normalizeFields(fields)); err != nil {
		return err
	}
	s.notifyLocked(ref.Collection.String())
	return nil
}

func (s *Store) lookupLocked(ref application.DocumentRef) (*document, bool) {
	docs, ok := s.collections[ref.Collection.String()]
	if !ok {
		return nil, false
	}
	doc, ok := docs[ref.ID]
	return doc, ok
}

func (s *Store) putLocked(ref application.DocumentRef, fields map[string]any) {
	key := ref.Collection.String()
	docs, ok := s.collections[key]
	if !ok {
		docs = make(map[string]*document)
		s.collections[key] = docs
	}
	s.version++
	docs[ref.ID] = &document{fields: fields, version: s.version}
}

func (s *Store) mergeLocked(ref application.DocumentRef, fields map[string]any) error {
	doc, ok := s.lookupLocked(ref)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
	}
	merged := copyFields(doc.fields)
	for k, v := range fields {
		merged[k] = v
	}
	s.version++
	doc.fields = merged
	doc.version = s.version
	return nil
}

func (s *Store) versionLocked(ref application.DocumentRef) uint64 {
	doc, ok := s.lookupLocked(ref)
	if !ok {
		return 0
	}
	return doc.version
}

func matches(fields map[string]any, q application.Query) bool {
	for _, p := range q.Predicates {
		v, ok := fields[p.Field]
		if !ok || compareValues(v, normalizeValue(p.Value)) != 0 {
			return false
		}
	}
	for _, o := range q.Orderings {
		if v, ok := fields[o.Field]; !ok || v == nil {
			return false
		}
	}
	return true
}

func normalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = normalizeValue(v)
	}
	return out
}

// normalizeValue converts Go values to the representation the store keeps:
// integers as int64, times as Timestamp.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case time.Time:
		return Timestamp{t: t.UTC()}
	default:
		return v
	}
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// compareValues orders numbers numerically, timestamps chronologically and
// everything else by its string form.
func compareValues(a, b any) int {
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if at, ok := a.(Timestamp); ok {
		if bt, ok := b.(Timestamp); ok {
			return at.t.Compare(bt.t)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
