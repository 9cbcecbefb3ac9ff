package notification

import "time"

// Kind is the closed category of a notification, determining its required
// input fields and content template.
type Kind string

const (
	// KindAssignment notifies a member they were assigned a role for an event.
	KindAssignment Kind = "ASSIGNMENT"
	// KindConvocation summons a member to a meeting.
	KindConvocation Kind = "CONVOCATION"
)

// Kinds returns every known notification kind.
func Kinds() []Kind {
	return []Kind{KindAssignment, KindConvocation}
}

// Valid reports whether the kind is one of the known categories.
func (k Kind) Valid() bool {
	switch k {
	case KindAssignment, KindConvocation:
		return true
	}
	return false
}

// Notification is the persisted domain entity. Instances are created only
// through the content builder and dispatcher; ad-hoc construction bypasses
// kind validation.
type Notification struct {
	ID        string         `bson:"_id" json:"id"`
	Emitter   string         `bson:"emitter" json:"emitter"`
	Recipient string         `bson:"recipient" json:"recipient"`
	Subject   string         `bson:"subject" json:"subject"`
	Body      string         `bson:"body" json:"body"`
	Kind      Kind           `bson:"kind" json:"kind"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Read      bool           `bson:"read" json:"read"`
	Extra     map[string]any `bson:"extra" json:"extra"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at" json:"updated_at"`
}

// Live event types pushed over a recipient's delivery channel.
const (
	EventConnected       = "connected"
	EventHeartbeat       = "heartbeat"
	EventNewNotification = "new_notification"
	EventMarkedRead      = "marked_read"
	EventDeleted         = "deleted"
)

// Summary is the compact notification shape carried inside live events.
type Summary struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Summary returns the live-event projection of the notification.
func (n *Notification) Summary() Summary {
	return Summary{
		ID:        n.ID,
		Kind:      n.Kind,
		Subject:   n.Subject,
		Body:      n.Body,
		Timestamp: n.Timestamp,
		Read:      n.Read,
	}
}
