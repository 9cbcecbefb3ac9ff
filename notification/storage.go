package notification

import (
	"context"
	"time"
)

// MaxPageSize is the server-side cap on listing and search page sizes.
const MaxPageSize = 100

// DefaultPageSize applies when a filter specifies no limit.
const DefaultPageSize = 20

// ListFilter composes listing criteria conjunctively; zero values are
// ignored. Read filters on read-state when set; From/To bound the logical
// timestamp.
type ListFilter struct {
	Recipient string
	Emitter   string
	Kind      Kind
	Read      *bool
	From      time.Time
	To        time.Time
	Limit     int
	Page      int // 1-based; used by Search
}

// normalize clamps the page size to the server cap and floors the page number.
func (f ListFilter) normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}
	return f
}

// Page is a paginated search result.
type Page struct {
	Items      []Notification `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

// UpdateFields carries the partial update of the three editable fields.
// Nil means "leave unchanged".
type UpdateFields struct {
	Subject *string
	Body    *string
	Read    *bool
}

// Storage handles notification persistence and retrieval. Implementations
// return every listing newest-timestamp-first and treat malformed ids as
// absent records.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, n Notification) error

	// Get retrieves a single notification by id.
	Get(ctx context.Context, id string) (*Notification, error)

	// List returns notifications matching the filter, newest first.
	List(ctx context.Context, f ListFilter) ([]Notification, error)

	// Search returns one page of matches plus pagination totals.
	Search(ctx context.Context, f ListFilter) (*Page, error)

	// Update applies a partial update and returns the updated record.
	Update(ctx context.Context, id string, fields UpdateFields) (*Notification, error)

	// MarkRead flips a single notification to read and returns it.
	MarkRead(ctx context.Context, id string) (*Notification, error)

	// MarkManyRead marks the given ids as read. Unknown ids are silently
	// ignored; the count of records actually flipped from unread to read is
	// returned, so already-read records do not inflate it.
	MarkManyRead(ctx context.Context, ids []string) (int64, error)

	// Delete removes a single notification.
	Delete(ctx context.Context, id string) error

	// DeleteAllForRecipient empties a recipient's mailbox and returns the
	// number of removed records.
	DeleteAllForRecipient(ctx context.Context, recipient string) (int64, error)

	// CountUnread returns the number of unread notifications for a recipient.
	CountUnread(ctx context.Context, recipient string) (int64, error)
}
