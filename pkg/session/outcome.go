package session

import "time"

type Direction string

const (
	Sent     Direction = "SENT"
	Received Direction = "RECEIVED"
)

type Status string

const (
	Success Status = "SUCCESS"
	Failure Status = "FAILURE"
)

// Outcome is the result of one send or receive attempt.
type Outcome struct {
	Direction Direction
	Status    Status
	Text      string // payload, empty on failure
	Detail    string
	Timestamp time.Time
	Err       error // cause of a failure
}

func (o Outcome) OK() bool {
	return o.Status == Success
}

// Sink receives every completed attempt, for example to persist a log of them.
type Sink interface {
	Record(o Outcome) error
}

type SinkFunc func(o Outcome) error

func (f SinkFunc) Record(o Outcome) error {
	return f(o)
}
