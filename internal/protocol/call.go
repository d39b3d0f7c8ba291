// internal/protocol/call.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoReply means the device stayed silent until the timeout.
// It is the expected signal for an unreachable device, not a fault.
var ErrNoReply = errors.New("no reply")

// Transactor performs one request/response exchange.
// ok == false with nil error is a timeout.
type Transactor interface {
	Exchange(ctx context.Context, req []byte, timeout time.Duration) ([]byte, bool, error)
}

// Call sends req and decodes the reply.
// Errors: ErrNoReply on timeout, ErrDecode on bad replies, anything else is transport.
func Call(ctx context.Context, tx Transactor, method string, req []byte, timeout time.Duration) (Result, error) {
	raw, ok, err := tx.Exchange(ctx, req, timeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", method, ErrNoReply)
	}
	res, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return res, nil
}
