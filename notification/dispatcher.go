package notification

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quorumhq/notify/pkg/async"
	"github.com/quorumhq/notify/pkg/logger"
	"github.com/quorumhq/notify/pkg/registry"
	"github.com/quorumhq/notify/pkg/validator"
)

// BulkFailure identifies one recipient that a bulk dispatch could not serve.
type BulkFailure struct {
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

// BulkResult aggregates the per-recipient outcomes of a bulk dispatch.
// Both lists are always present, even when one of them is empty.
type BulkResult struct {
	Succeeded []Notification `json:"succeeded"`
	Failed    []BulkFailure  `json:"failed"`
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDeliverer overrides the real-time delivery channel(s).
// Defaults to a RegistryDeliverer over the dispatcher's registry.
func WithDeliverer(d Deliverer) DispatcherOption {
	return func(disp *Dispatcher) {
		if d != nil {
			disp.deliverer = d
		}
	}
}

// WithContentBuilder overrides the content builder.
func WithContentBuilder(b *ContentBuilder) DispatcherOption {
	return func(disp *Dispatcher) {
		if b != nil {
			disp.builder = b
		}
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(log *slog.Logger) DispatcherOption {
	return func(disp *Dispatcher) {
		if log != nil {
			disp.log = log
		}
	}
}

// Dispatcher orchestrates the notification pipeline: content construction,
// persistence, then best-effort real-time delivery. A notification counts as
// sent once persisted; delivery misses are logged, never surfaced.
type Dispatcher struct {
	builder   *ContentBuilder
	storage   Storage
	live      *registry.Registry
	deliverer Deliverer
	log       *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given storage and registry.
func NewDispatcher(storage Storage, live *registry.Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		builder: NewContentBuilder(),
		storage: storage,
		live:    live,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.deliverer == nil {
		if live != nil {
			d.deliverer = NewRegistryDeliverer(live)
		} else {
			d.deliverer = NoopDeliverer{}
		}
	}
	return d
}

// Send builds, persists, and best-effort-delivers a single notification.
// Validation failures surface before any persistence attempt; a failed live
// push never fails the call.
func (d *Dispatcher) Send(ctx context.Context, kind Kind, emitter, recipient string, in Input) (*Notification, error) {
	content, err := d.builder.Build(kind, emitter, recipient, in)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	n := Notification{
		ID:        uuid.New().String(),
		Emitter:   emitter,
		Recipient: recipient,
		Subject:   content.Subject,
		Body:      content.Body,
		Kind:      kind,
		Timestamp: content.Timestamp,
		Extra:     content.Extra,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Persistence precedes delivery; a stored notification survives a missed
	// push and remains retrievable.
	if err := d.storage.Create(ctx, n); err != nil {
		return nil, err
	}

	if !d.deliverer.Deliver(ctx, n) {
		d.log.LogAttrs(ctx, slog.LevelDebug, "notification stored, live delivery missed",
			logger.NotificationID(n.ID),
			logger.Recipient(n.Recipient),
			logger.Kind(string(n.Kind)),
		)
	}

	return &n, nil
}

// SendMany fans one logical notification out to many recipients. Recipients
// are deduplicated and blank entries dropped before dispatch; each remaining
// recipient is processed independently and concurrently, and one recipient's
// failure never aborts the rest. ErrNoRecipients is returned when filtering
// leaves nothing to send to.
func (d *Dispatcher) SendMany(ctx context.Context, kind Kind, emitter string, recipients []string, in Input) (*BulkResult, error) {
	targets := normalizeRecipients(recipients)
	if len(targets) == 0 {
		return nil, ErrNoRecipients
	}

	type outcome struct {
		recipient string
		n         *Notification
		err       error
	}

	futures := make([]*async.Future[outcome], 0, len(targets))
	for _, recipient := range targets {
		futures = append(futures, async.Async(ctx, recipient, func(ctx context.Context, r string) (outcome, error) {
			n, err := d.Send(ctx, kind, emitter, r, in)
			return outcome{recipient: r, n: n, err: err}, nil
		}))
	}

	result := &BulkResult{
		Succeeded: make([]Notification, 0, len(targets)),
		Failed:    make([]BulkFailure, 0),
	}
	for _, f := range futures {
		out, err := f.Await()
		if err != nil {
			// Only a pre-canceled context produces a future-level error.
			out.err = err
		}
		if out.err != nil {
			result.Failed = append(result.Failed, BulkFailure{
				Recipient: out.recipient,
				Reason:    out.err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, *out.n)
	}

	d.log.LogAttrs(ctx, slog.LevelInfo, "bulk dispatch finished",
		logger.Emitter(emitter),
		logger.Kind(string(kind)),
		slog.Int("succeeded", len(result.Succeeded)),
		slog.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// Get returns a single notification by id.
func (d *Dispatcher) Get(ctx context.Context, id string) (*Notification, error) {
	return d.storage.Get(ctx, id)
}

// List returns notifications matching the filter, newest first.
func (d *Dispatcher) List(ctx context.Context, f ListFilter) ([]Notification, error) {
	return d.storage.List(ctx, f)
}

// Search returns one page of matches plus pagination totals.
func (d *Dispatcher) Search(ctx context.Context, f ListFilter) (*Page, error) {
	return d.storage.Search(ctx, f)
}

// Update applies a partial update of the editable fields. Subject and body
// are bounds-checked but deliberately not re-validated against the kind's
// structural rules. A read-state change is pushed to the recipient's live
// channel.
func (d *Dispatcher) Update(ctx context.Context, id string, fields UpdateFields) (*Notification, error) {
	if err := validateUpdate(fields); err != nil {
		return nil, err
	}

	n, err := d.storage.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	if fields.Read != nil {
		d.pushEvent(ctx, n.Recipient, EventMarkedRead, map[string]any{"id": n.ID, "read": n.Read})
	}
	return n, nil
}

// MarkRead flips a single notification to read and pushes a marked_read
// event to its recipient.
func (d *Dispatcher) MarkRead(ctx context.Context, id string) (*Notification, error) {
	n, err := d.storage.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}
	d.pushEvent(ctx, n.Recipient, EventMarkedRead, map[string]any{"id": n.ID, "read": true})
	return n, nil
}

// MarkManyRead marks the given ids as read and returns the count of records
// actually flipped. Unknown and already-read ids are silently ignored.
func (d *Dispatcher) MarkManyRead(ctx context.Context, ids []string) (int64, error) {
	return d.storage.MarkManyRead(ctx, ids)
}

// Delete removes a notification and pushes a deleted event to its recipient.
func (d *Dispatcher) Delete(ctx context.Context, id string) error {
	n, err := d.storage.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := d.storage.Delete(ctx, id); err != nil {
		return err
	}
	d.pushEvent(ctx, n.Recipient, EventDeleted, map[string]any{"id": n.ID})
	return nil
}

// DeleteAllForRecipient empties a recipient's mailbox and notifies their live
// channel that everything is gone.
func (d *Dispatcher) DeleteAllForRecipient(ctx context.Context, recipient string) (int64, error) {
	deleted, err := d.storage.DeleteAllForRecipient(ctx, recipient)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		d.pushEvent(ctx, recipient, EventDeleted, map[string]any{"all": true})
	}
	return deleted, nil
}

// CountUnread returns the number of unread notifications for a recipient.
func (d *Dispatcher) CountUnread(ctx context.Context, recipient string) (int64, error) {
	return d.storage.CountUnread(ctx, recipient)
}

// pushEvent delivers a lifecycle event to the recipient's live channel,
// logging misses at debug level. Never escalates.
func (d *Dispatcher) pushEvent(ctx context.Context, recipient, eventType string, data any) {
	if d.live == nil {
		return
	}
	if !d.live.Push(recipient, registry.Event{Type: eventType, Data: data}) {
		d.log.LogAttrs(ctx, slog.LevelDebug, "lifecycle event not delivered",
			logger.Recipient(recipient),
			logger.EventType(eventType),
		)
	}
}

// validateUpdate bounds-checks the editable fields when present. Structural
// validation stays with the kind variants at build time; edits only have to
// respect the length limits.
func validateUpdate(fields UpdateFields) error {
	var rules []validator.Rule
	if fields.Subject != nil {
		rules = append(rules, validator.LenBetween("subject", *fields.Subject, minSubjectLen, maxSubjectLen))
	}
	if fields.Body != nil {
		rules = append(rules, validator.LenBetween("body", *fields.Body, minBodyLen, maxBodyLen))
	}
	return validator.Apply(rules...)
}

// normalizeRecipients trims, drops blanks, and deduplicates while preserving
// first-seen order.
func normalizeRecipients(recipients []string) []string {
	seen := make(map[string]struct{}, len(recipients))
	targets := make([]string, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		targets = append(targets, r)
	}
	return targets
}
