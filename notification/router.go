package notification

import "github.com/go-chi/chi/v5"

// Routes mounts the notification API onto a chi router. The caller decides
// the mount point; paths here are relative.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/notifications", func(r chi.Router) {
		r.Post("/", h.send)
		r.Post("/bulk", h.sendBulk)
		r.Post("/read", h.markManyRead)
		r.Get("/", h.search)
		r.Get("/unread/count", h.unreadCount)

		r.Route("/recipient/{recipient}", func(r chi.Router) {
			r.Get("/", h.listByRecipient)
			r.Delete("/", h.removeAll)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Patch("/", h.update)
			r.Delete("/", h.remove)
			r.Post("/read", h.markRead)
		})
	})

	r.Route("/live/{identity}", func(r chi.Router) {
		r.Get("/", h.liveStream)
		r.Post("/heartbeat", h.heartbeat)
	})

	return r
}
