package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of Storage.
// Suitable for development and testing.
type MemoryStorage struct {
	byID map[string]Notification
	mu   sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{byID: make(map[string]Notification)}
}

func (s *MemoryStorage) Create(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	s.byID[n.ID] = n
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	return &n, nil
}

func (s *MemoryStorage) List(_ context.Context, f ListFilter) ([]Notification, error) {
	f = f.normalize()

	s.mu.RLock()
	matched := s.filter(f)
	s.mu.RUnlock()

	if len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (s *MemoryStorage) Search(_ context.Context, f ListFilter) (*Page, error) {
	f = f.normalize()

	s.mu.RLock()
	matched := s.filter(f)
	s.mu.RUnlock()

	total := int64(len(matched))
	totalPages := int((total + int64(f.Limit) - 1) / int64(f.Limit))

	start := (f.Page - 1) * f.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return &Page{
		Items:      matched[start:end],
		Total:      total,
		Page:       f.Page,
		TotalPages: totalPages,
	}, nil
}

func (s *MemoryStorage) Update(_ context.Context, id string, fields UpdateFields) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}

	if fields.Subject != nil {
		n.Subject = *fields.Subject
	}
	if fields.Body != nil {
		n.Body = *fields.Body
	}
	if fields.Read != nil {
		n.Read = *fields.Read
	}
	n.UpdatedAt = time.Now()

	s.byID[id] = n
	return &n, nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, id string) (*Notification, error) {
	read := true
	return s.Update(ctx, id, UpdateFields{Read: &read})
}

func (s *MemoryStorage) MarkManyRead(_ context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for _, id := range ids {
		n, ok := s.byID[id]
		if !ok || n.Read {
			continue
		}
		n.Read = true
		n.UpdatedAt = time.Now()
		s.byID[id] = n
		changed++
	}
	return changed, nil
}

func (s *MemoryStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return ErrNotificationNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *MemoryStorage) DeleteAllForRecipient(_ context.Context, recipient string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, n := range s.byID {
		if n.Recipient == recipient {
			delete(s.byID, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStorage) CountUnread(_ context.Context, recipient string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.byID {
		if n.Recipient == recipient && !n.Read {
			count++
		}
	}
	return count, nil
}

// filter returns matches sorted newest-timestamp-first.
// Callers must hold at least a read lock.
func (s *MemoryStorage) filter(f ListFilter) []Notification {
	matched := make([]Notification, 0)
	for _, n := range s.byID {
		if f.Recipient != "" && n.Recipient != f.Recipient {
			continue
		}
		if f.Emitter != "" && n.Emitter != f.Emitter {
			continue
		}
		if f.Kind != "" && n.Kind != f.Kind {
			continue
		}
		if f.Read != nil && n.Read != *f.Read {
			continue
		}
		if !f.From.IsZero() && n.Timestamp.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && n.Timestamp.After(f.To) {
			continue
		}
		matched = append(matched, n)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	return matched
}
