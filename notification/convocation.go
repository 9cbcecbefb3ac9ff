package notification

import (
	"time"

	"golang.org/x/text/message"

	"github.com/quorumhq/notify/pkg/validator"
)

// convocationVariant builds content for meeting convocations.
type convocationVariant struct{}

func (convocationVariant) subject(Input) string {
	return "Meeting convocation"
}

func (convocationVariant) body(p *message.Printer, in Input) string {
	body := p.Sprintf("You are convoked to a meeting on %s at %s.",
		in.EventTime.Format(eventTimeLayout), in.Location)
	if in.AgendaID != "" {
		body += p.Sprintf(" The agenda is available under reference %s.", in.AgendaID)
	}
	return body
}

// timestamp is always the construction time; convocations are effective when
// issued.
func (convocationVariant) timestamp(_ Input, now time.Time) time.Time {
	return now
}

func (convocationVariant) validate(in Input) error {
	return validator.Apply(
		validator.Required("event_id", in.EventID),
		validator.RequiredDate("event_time", in.EventTime),
		validator.FutureDate("event_time", in.EventTime),
		validator.Required("location", in.Location),
	)
}

func (convocationVariant) extra(in Input) map[string]any {
	extra := map[string]any{
		"event_id":   in.EventID,
		"event_time": in.EventTime,
		"location":   in.Location,
	}
	if in.AgendaID != "" {
		extra["agenda_id"] = in.AgendaID
	}
	return extra
}
