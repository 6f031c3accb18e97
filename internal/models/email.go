package models

import "time"

// Email represents the normalized metadata of one new message, used to
// enrich the push notification. Body content is never fetched.
type Email struct {
	UID          uint32
	From         string
	Subject      string
	InternalDate time.Time
	TraceID      string
}
