// Package theatertest provides an in-memory implementation of the theater
// store interfaces plus the shared fixture data used by the scheduling
// tests. The store mirrors the semantics of the SQL repositories: the
// ordered listing inner-joins on the order-index meta, compares it
// numerically, and authored meta writes bump the post's updated_at.
package theatertest

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/theater-production-schedule/internal/model"
	"github.com/iliyamo/theater-production-schedule/internal/theater"
)

// Store is an in-memory post/meta/options store for tests.
type Store struct {
	mu      sync.Mutex
	nextID  uint64
	posts   map[uint64]*model.Post
	meta    map[uint64]map[string]string
	options map[string]string
	created []uint64 // insertion order of post IDs

	// Now stamps created_at/updated_at; defaults to time.Now.
	Now theater.Clock
	// FailSetMeta makes SetMeta fail for the given post IDs, to simulate
	// partial repair failures.
	FailSetMeta map[uint64]error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		posts:       map[uint64]*model.Post{},
		meta:        map[uint64]map[string]string{},
		options:     map[string]string{},
		FailSetMeta: map[uint64]error{},
		Now:         time.Now,
	}
}

// CreatePost inserts a post of the given type and returns its ID.
func (s *Store) CreatePost(typ, title, status string, sticky bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	now := s.Now().UTC()
	s.posts[id] = &model.Post{
		ID: id, Type: typ, Title: title, Status: status, Sticky: sticky,
		CreatedAt: now, UpdatedAt: now,
	}
	s.meta[id] = map[string]string{}
	s.created = append(s.created, id)
	return id
}

// CreateProduction inserts a published production post.
func (s *Store) CreateProduction(title string, sticky bool) uint64 {
	return s.CreatePost(model.TypeProduction, title, model.StatusPublish, sticky)
}

// CreateEvent inserts a published event linked to a production with the
// given start instant.
func (s *Store) CreateEvent(productionID uint64, start time.Time) uint64 {
	id := s.CreatePost(model.TypeEvent, "", model.StatusPublish, false)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[id][model.MetaProduction] = strconv.FormatUint(productionID, 10)
	s.meta[id][model.MetaEventDate] = start.UTC().Format(theater.DateLayout)
	return id
}

// SetUpdated overrides a post's updated_at, so tests can place rows before
// or after a repair watermark.
func (s *Store) SetUpdated(id uint64, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[id]; ok {
		p.UpdatedAt = t.UTC()
	}
}

// GetByID implements theater.Store.
func (s *Store) GetByID(_ context.Context, id uint64) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *p
	return &cp, nil
}

// Meta implements theater.Store.
func (s *Store) Meta(_ context.Context, id uint64, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meta[id]
	if !ok {
		return "", false, nil
	}
	v, ok := m[key]
	return v, ok, nil
}

// SetMeta implements theater.Store. Authored (non-underscore) keys bump the
// post's updated_at, matching the SQL repository.
func (s *Store) SetMeta(_ context.Context, id uint64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailSetMeta[id]; err != nil {
		return err
	}
	if s.meta[id] == nil {
		s.meta[id] = map[string]string{}
	}
	s.meta[id][key] = value
	if !strings.HasPrefix(key, "_") {
		if p, ok := s.posts[id]; ok {
			p.UpdatedAt = s.Now().UTC()
		}
	}
	return nil
}

// DeleteMeta implements theater.Store.
func (s *Store) DeleteMeta(_ context.Context, id uint64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.meta[id], key)
	return nil
}

// DeletePost removes a post and its meta, like the SQL repository's
// transactional delete.
func (s *Store) DeletePost(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.posts, id)
	delete(s.meta, id)
	for i, c := range s.created {
		if c == id {
			s.created = append(s.created[:i], s.created[i+1:]...)
			break
		}
	}
}

// SetStatus changes a post's status and bumps updated_at.
func (s *Store) SetStatus(id uint64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[id]; ok {
		p.Status = status
		p.UpdatedAt = s.Now().UTC()
	}
}

// EventIDsByProduction implements theater.Store.
func (s *Store) EventIDsByProduction(_ context.Context, productionID uint64) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link := strconv.FormatUint(productionID, 10)
	var out []uint64
	for _, id := range s.created {
		p := s.posts[id]
		if p.Type != model.TypeEvent || p.Status != model.StatusPublish {
			continue
		}
		if s.meta[id][model.MetaProduction] == link {
			out = append(out, id)
		}
	}
	return out, nil
}

// ProductionIDsByOrder implements theater.Store with the same ordering
// semantics as the SQL listing query.
func (s *Store) ProductionIDsByOrder(_ context.Context, statuses []string, pinSticky bool, limit int) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type row struct {
		id     uint64
		index  int64
		sticky bool
	}
	var rows []row
	for _, id := range s.created {
		p := s.posts[id]
		if p.Type != model.TypeProduction || !statusMatch(p.Status, statuses) {
			continue
		}
		raw, ok := s.meta[id][model.MetaOrderIndex]
		if !ok {
			continue // no orderable events: excluded, like the inner join
		}
		index, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		rows = append(rows, row{id: id, index: index, sticky: p.Sticky})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if pinSticky && a.sticky != b.sticky {
			return a.sticky
		}
		if pinSticky && a.sticky && b.sticky {
			return a.id < b.id
		}
		if a.index != b.index {
			return a.index < b.index
		}
		if a.sticky != b.sticky {
			return a.sticky
		}
		return a.id < b.id
	})

	out := make([]uint64, 0, len(rows))
	for _, r := range rows {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, r.id)
	}
	return out, nil
}

// IDsByTypes implements theater.Store.
func (s *Store) IDsByTypes(_ context.Context, types []string, ids []uint64) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[string]bool{}
	for _, t := range types {
		want[t] = true
	}
	seen := map[uint64]bool{}
	var out []uint64
	for _, id := range ids {
		p, ok := s.posts[id]
		if !ok || seen[id] || !want[p.Type] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// EventIDsChangedSince implements theater.Store.
func (s *Store) EventIDsChangedSince(_ context.Context, since time.Time) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uint64
	for _, id := range s.created {
		p := s.posts[id]
		if p.Type == model.TypeEvent && p.Status == model.StatusPublish && p.UpdatedAt.After(since) {
			out = append(out, id)
		}
	}
	return out, nil
}

// EventIDsStartingBetween implements theater.Store.
func (s *Store) EventIDsStartingBetween(_ context.Context, from, to int64) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uint64
	for _, id := range s.created {
		p := s.posts[id]
		if p.Type != model.TypeEvent || p.Status != model.StatusPublish {
			continue
		}
		raw, ok := s.meta[id][model.MetaOrderIndex]
		if !ok {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if v > from && v <= to {
			out = append(out, id)
		}
	}
	return out, nil
}

// Option implements theater.Options.
func (s *Store) Option(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.options[name]
	return v, ok, nil
}

// SetOption implements theater.Options.
func (s *Store) SetOption(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options[name] = value
	return nil
}

func statusMatch(status string, statuses []string) bool {
	if len(statuses) == 0 {
		return status == model.StatusPublish
	}
	for _, s := range statuses {
		if strings.EqualFold(s, "any") || s == status {
			return true
		}
	}
	return false
}

var errNotFound = errNotFoundType{}

type errNotFoundType struct{}

func (errNotFoundType) Error() string { return "post not found" }
