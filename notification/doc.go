// Package notification implements the notification pipeline: kind-dispatched
// content construction, persistence, and best-effort real-time delivery.
//
// The pipeline has three layers. The ContentBuilder turns a Kind plus raw
// Input into validated Content through a fixed sequence of steps (subject,
// body, timestamp, validation, extra payload); each Kind contributes only the
// step bodies, never the order. Storage persists the resulting Notification
// records; MongoStorage is the production implementation and MemoryStorage
// backs tests and local development. The Dispatcher ties them together:
// a notification counts as sent once persisted, and the subsequent push over
// the recipient's live connection is best-effort.
//
// Dispatching a notification:
//
//	reg := registry.New()
//	disp := notification.NewDispatcher(storage, reg)
//
//	n, err := disp.Send(ctx, notification.KindAssignment, "scheduler", "member-42", notification.Input{
//		EventID:   "evt-1",
//		Role:      "chair",
//		EventTime: time.Now().Add(48 * time.Hour),
//	})
//
// Bulk dispatch fans out to each recipient independently; one recipient's
// validation or storage failure never aborts the rest:
//
//	result, err := disp.SendMany(ctx, kind, emitter, recipients, input)
//	// result.Succeeded and result.Failed partition the recipients.
//
// The HTTP surface (Handler.Routes) exposes the same operations plus a
// server-sent-events stream per recipient identity for live delivery.
package notification
