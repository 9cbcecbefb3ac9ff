package notification

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quorumhq/notify/pkg/registry"
	"github.com/quorumhq/notify/pkg/response"
	"github.com/quorumhq/notify/pkg/validator"
)

// CreateRequest is the payload for dispatching a single notification.
type CreateRequest struct {
	Kind      Kind   `json:"kind"`
	Emitter   string `json:"emitter"`
	Recipient string `json:"recipient"`
	Input     Input  `json:"input"`
}

// BulkRequest is the payload for dispatching one notification to many
// recipients.
type BulkRequest struct {
	Kind       Kind     `json:"kind"`
	Emitter    string   `json:"emitter"`
	Recipients []string `json:"recipients"`
	Input      Input    `json:"input"`
}

// UpdateRequest carries a partial update; absent fields stay unchanged.
type UpdateRequest struct {
	Subject *string `json:"subject,omitempty"`
	Body    *string `json:"body,omitempty"`
	Read    *bool   `json:"read,omitempty"`
}

// MarkManyRequest lists the notification ids to mark as read.
type MarkManyRequest struct {
	IDs []string `json:"ids"`
}

// Handler exposes the notification API over HTTP.
type Handler struct {
	svc  *Dispatcher
	live *registry.Registry
	log  *slog.Logger
}

// NewHandler creates the HTTP handler around a dispatcher and the live
// connection registry.
func NewHandler(svc *Dispatcher, live *registry.Registry, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, live: live, log: log}
}

// send handles POST /api/notifications.
func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	n, err := h.svc.Send(r.Context(), req.Kind, req.Emitter, req.Recipient, req.Input)
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}
	response.JSON(w, http.StatusCreated, n)
}

// sendBulk handles POST /api/notifications/bulk. Partial failure is a
// success response; per-recipient outcomes live in the body.
func (h *Handler) sendBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	result, err := h.svc.SendMany(r.Context(), req.Kind, req.Emitter, req.Recipients, req.Input)
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}
	response.JSON(w, http.StatusCreated, result)
}

// get handles GET /api/notifications/{id}.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}
	response.JSON(w, http.StatusOK, n)
}

// listByRecipient handles GET /api/notifications/recipient/{recipient},
// a plain newest-first listing of one mailbox.
func (h *Handler) listByRecipient(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	f.Recipient = chi.URLParam(r, "recipient")

	items, err := h.svc.List(r.Context(), f)
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}
	response.JSON(w, http.StatusOK, items)
}

// search handles GET /api/notifications, returning one page plus pagination
// totals in the meta envelope.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	page, err := h.svc.Search(r.Context(), f)
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}
	response.JSONMeta(w, http.StatusOK, page.Items, map[string]any{
		"total":       page.Total,
		"page":        page.Page,
		"total_pages": page.TotalPages,
	})
}

// update handles PATCH /api/notifications/{id}.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	n, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), UpdateFields{
		Subject: req.Subject,
		Body:    req.Body,
		Read:    req.Read,
	})
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}
	response.JSON(w, http.StatusOK, n)
}

// markRead handles POST /api/notifications/{id}/read.
func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}
	response.JSON(w, http.StatusOK, n)
}

// markManyRead handles POST /api/notifications/read.
func (h *Handler) markManyRead(w http.ResponseWriter, r *http.Request) {
	var req MarkManyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	updated, err := h.svc.MarkManyRead(r.Context(), req.IDs)
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}
	response.JSON(w, http.StatusOK, map[string]int64{"count": updated})
}

// remove handles DELETE /api/notifications/{id}.
func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Error(w, mapDomainError(err))
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// removeAll handles DELETE /api/notifications/recipient/{recipient}.
func (h *Handler) removeAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.DeleteAllForRecipient(r.Context(), chi.URLParam(r, "recipient"))
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}
	response.JSON(w, http.StatusOK, map[string]int64{"deleted_count": deleted})
}

// unreadCount handles GET /api/notifications/unread/count?recipient=.
func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	recipient := r.URL.Query().Get("recipient")
	if err := validator.Apply(validator.Required("recipient", recipient)); err != nil {
		response.Error(w, err)
		return
	}

	count, err := h.svc.CountUnread(r.Context(), recipient)
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}
	response.JSON(w, http.StatusOK, map[string]int64{"count": count})
}

// heartbeat handles POST /api/live/{identity}/heartbeat. 404 means the
// identity has no live connection and the client should reconnect.
func (h *Handler) heartbeat(w http.ResponseWriter, r *http.Request) {
	if !h.live.Heartbeat(chi.URLParam(r, "identity")) {
		response.Error(w, response.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mapDomainError translates domain sentinel errors into HTTP errors, leaving
// validation errors to pass through untouched.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, ErrNotificationNotFound):
		return response.ErrNotFound
	case errors.Is(err, ErrNoRecipients), errors.Is(err, ErrUnknownKind):
		return response.ErrBadRequest
	default:
		return err
	}
}

// filterFromQuery builds a ListFilter from query parameters. Timestamps use
// RFC 3339; malformed values are rejected as validation errors.
func filterFromQuery(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	f := ListFilter{
		Recipient: q.Get("recipient"),
		Emitter:   q.Get("emitter"),
		Kind:      Kind(q.Get("kind")),
	}

	var failures validator.ValidationErrors

	if f.Kind != "" && !f.Kind.Valid() {
		failures = append(failures, validator.ValidationError{Field: "kind", Message: "unknown kind"})
	}
	if raw := q.Get("read"); raw != "" {
		read, err := strconv.ParseBool(raw)
		if err != nil {
			failures = append(failures, validator.ValidationError{Field: "read", Message: "must be a boolean"})
		} else {
			f.Read = &read
		}
	}
	if raw := q.Get("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			failures = append(failures, validator.ValidationError{Field: "from", Message: "must be an RFC 3339 timestamp"})
		} else {
			f.From = ts
		}
	}
	if raw := q.Get("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			failures = append(failures, validator.ValidationError{Field: "to", Message: "must be an RFC 3339 timestamp"})
		} else {
			f.To = ts
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			failures = append(failures, validator.ValidationError{Field: "limit", Message: "must be an integer"})
		} else {
			f.Limit = limit
		}
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			failures = append(failures, validator.ValidationError{Field: "page", Message: "must be an integer"})
		} else {
			f.Page = page
		}
	}

	if len(failures) > 0 {
		return ListFilter{}, failures
	}
	return f, nil
}
