package notification

import (
	"context"

	"github.com/quorumhq/notify/pkg/registry"
)

// Deliverer attempts real-time delivery of a freshly persisted notification.
// Deliver reports success with a boolean rather than an error so callers
// cannot mistake "recipient offline" for a system fault; delivery is always
// best-effort.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) bool
}

// RegistryDeliverer pushes notifications to the recipient's live connection.
type RegistryDeliverer struct {
	reg *registry.Registry
}

// NewRegistryDeliverer creates a deliverer over the given registry.
func NewRegistryDeliverer(reg *registry.Registry) *RegistryDeliverer {
	return &RegistryDeliverer{reg: reg}
}

func (d *RegistryDeliverer) Deliver(_ context.Context, n Notification) bool {
	return d.reg.Push(n.Recipient, registry.Event{
		Type: EventNewNotification,
		Data: n.Summary(),
	})
}

// MultiDeliverer fans delivery out to several channels. Every channel is
// attempted regardless of earlier outcomes; it reports true when at least one
// channel delivered.
type MultiDeliverer []Deliverer

func (m MultiDeliverer) Deliver(ctx context.Context, n Notification) bool {
	delivered := false
	for _, d := range m {
		if d.Deliver(ctx, n) {
			delivered = true
		}
	}
	return delivered
}

// NoopDeliverer never delivers. Useful for tests and for wiring the
// dispatcher without a live channel.
type NoopDeliverer struct{}

func (NoopDeliverer) Deliver(context.Context, Notification) bool { return false }
