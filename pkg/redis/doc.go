// Package redis provides Redis connection management: environment-driven
// configuration, retrying connect logic, and a health check.
//
// The notification service uses Redis for the unread-count cache; the cache
// itself lives with the notification storage layer, this package only owns
// the connection.
package redis
