package history

import (
	"time"

	"AcousticTxRx/pkg/session"

	"github.com/vmihailenco/msgpack/v5"
)

// Record is the persisted form of a session.Outcome.
type Record struct {
	ID        string    `msgpack:"id"`
	Direction string    `msgpack:"direction"`
	Status    string    `msgpack:"status"`
	Content   string    `msgpack:"data_content"`
	Details   string    `msgpack:"details"`
	Timestamp time.Time `msgpack:"timestamp"`
}

func FromOutcome(id string, o session.Outcome) Record {
	return Record{
		ID:        id,
		Direction: string(o.Direction),
		Status:    string(o.Status),
		Content:   o.Text,
		Details:   o.Detail,
		Timestamp: o.Timestamp,
	}
}

func (r Record) MarshalBinary() ([]byte, error) {
	type plain Record
	return msgpack.Marshal(plain(r))
}

func (r *Record) UnmarshalBinary(data []byte) error {
	type plain Record
	return msgpack.Unmarshal(data, (*plain)(r))
}
