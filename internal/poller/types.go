// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/marstek-bridge/internal/channel"
)

// Field maps one key of a query result onto a published channel.
type Field struct {
	Channel channel.ID
	Key     string
	Kind    channel.Kind
	Unit    channel.Unit
	OnValue int // switch only: when set, just this integer reads as on
}

// Query is one status method and the fields it may report.
type Query struct {
	Method string
	Fields []Field
}

// QueryResult is the outcome of one status query inside a cycle.
type QueryResult struct {
	Method    string
	Published int
	Err       error // ErrNoReply, ErrDecode or transport; nil on success
}

// PollResult is produced by one poll cycle.
type PollResult struct {
	DeviceID string
	At       time.Time

	Skipped   bool // device disposed, nothing attempted
	Reachable bool
	Completed bool // every query attempted, lastUpdate stamped

	Queries []QueryResult
	Err     error // probe failure or recovered panic
}

// Failed counts queries that did not produce a decoded result.
func (r PollResult) Failed() int {
	n := 0
	for _, q := range r.Queries {
		if q.Err != nil {
			n++
		}
	}
	return n
}
