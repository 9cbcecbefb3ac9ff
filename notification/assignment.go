package notification

import (
	"time"

	"golang.org/x/text/message"

	"github.com/quorumhq/notify/pkg/validator"
)

// assignmentVariant builds content for role assignments: a member is given a
// role for a referenced event.
type assignmentVariant struct{}

func (assignmentVariant) subject(in Input) string {
	return "Role assignment: " + in.Role
}

func (assignmentVariant) body(p *message.Printer, in Input) string {
	return p.Sprintf("You have been assigned the role %q for the event on %s.",
		in.Role, in.EventTime.Format(eventTimeLayout))
}

// timestamp honors a caller-supplied logical timestamp; assignments may be
// recorded after the fact of the assignment decision.
func (assignmentVariant) timestamp(in Input, now time.Time) time.Time {
	if !in.Timestamp.IsZero() {
		return in.Timestamp
	}
	return now
}

func (assignmentVariant) validate(in Input) error {
	return validator.Apply(
		validator.Required("event_id", in.EventID),
		validator.Required("role", in.Role),
		validator.RequiredDate("event_time", in.EventTime),
		validator.FutureDate("event_time", in.EventTime),
	)
}

func (assignmentVariant) extra(in Input) map[string]any {
	return map[string]any{
		"event_id":   in.EventID,
		"role":       in.Role,
		"event_time": in.EventTime,
	}
}
