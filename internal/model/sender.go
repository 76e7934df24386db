package model

import "time"

// Sender is a person who posted at least one message, keyed by mobile number.
type Sender struct {
	FirstSeen time.Time
	Mobile    string
	Name      string
	ID        int64
}
