package notification

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/quorumhq/notify/pkg/validator"
)

// Input is the raw, kind-agnostic payload a caller supplies to build
// notification content. Which fields are required depends on the kind.
type Input struct {
	EventID   string    `json:"event_id"`
	Role      string    `json:"role,omitempty"`
	EventTime time.Time `json:"event_time"`
	Location  string    `json:"location,omitempty"`
	AgendaID  string    `json:"agenda_id,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"` // optional override, honored per kind
}

// Length bounds enforced on every subject and body, at build time and on
// later edits alike.
const (
	minSubjectLen = 1
	maxSubjectLen = 200
	minBodyLen    = 1
	maxBodyLen    = 1000
)

// Content is the validated result of content construction, ready to be
// persisted as a notification.
type Content struct {
	Subject   string
	Body      string
	Timestamp time.Time
	Extra     map[string]any
}

// variant supplies the kind-specific steps of content construction.
// The orchestration order is fixed by ContentBuilder.Build and must not be
// re-implemented by variants.
type variant interface {
	subject(in Input) string
	body(p *message.Printer, in Input) string
	timestamp(in Input, now time.Time) time.Time
	validate(in Input) error
	extra(in Input) map[string]any
}

// variants maps each kind to its construction steps. Adding a kind means
// adding one entry here plus the Kind constant.
var variants = map[Kind]variant{
	KindAssignment:  assignmentVariant{},
	KindConvocation: convocationVariant{},
}

// BuilderOption configures a ContentBuilder.
type BuilderOption func(*ContentBuilder)

// WithLanguage sets the locale used for body text and date rendering.
func WithLanguage(tag language.Tag) BuilderOption {
	return func(b *ContentBuilder) {
		b.printer = message.NewPrinter(tag)
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *ContentBuilder) {
		if now != nil {
			b.now = now
		}
	}
}

// ContentBuilder turns a notification kind plus raw input into validated
// content. It performs no I/O; the current clock is its only ambient input.
type ContentBuilder struct {
	printer *message.Printer
	now     func() time.Time
}

// NewContentBuilder creates a builder rendering English content by default.
func NewContentBuilder(opts ...BuilderOption) *ContentBuilder {
	b := &ContentBuilder{
		printer: message.NewPrinter(language.English),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles content for the given kind in a fixed order: subject, body,
// timestamp, kind-specific validation, extra payload. Validation always runs
// before any content is returned; the step order is not overridable per kind.
func (b *ContentBuilder) Build(kind Kind, emitter, recipient string, in Input) (Content, error) {
	if err := validator.Apply(
		validator.Required("emitter", emitter),
		validator.Required("recipient", recipient),
		validator.OneOf("kind", kind, Kinds()),
	); err != nil {
		return Content{}, err
	}

	v, ok := variants[kind]
	if !ok {
		return Content{}, ErrUnknownKind
	}

	subject := v.subject(in)
	body := v.body(b.printer, in)
	ts := v.timestamp(in, b.now())

	if err := v.validate(in); err != nil {
		return Content{}, err
	}
	if err := validator.Apply(
		validator.LenBetween("subject", subject, minSubjectLen, maxSubjectLen),
		validator.LenBetween("body", body, minBodyLen, maxBodyLen),
	); err != nil {
		return Content{}, err
	}

	return Content{
		Subject:   subject,
		Body:      body,
		Timestamp: ts,
		Extra:     v.extra(in),
	}, nil
}

// eventTimeLayout renders event times inside notification bodies.
const eventTimeLayout = "Monday, 2 January 2006 at 15:04"
