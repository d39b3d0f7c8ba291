// internal/udp/transaction.go
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// ErrTransport marks socket level failures: bind, resolve, send, receive.
// A silent device is NOT a transport error.
var ErrTransport = errors.New("udp transport")

// ReceiveBufferSize bounds one reply datagram. No reassembly.
const ReceiveBufferSize = 4096

// Endpoint is the remote device address.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Exchange sends one datagram to ep and waits for exactly one reply.
//
// The socket is bound to localPort (0 = ephemeral) and released on return.
// ok == false with a nil error means nothing arrived before the timeout.
// No retries.
func Exchange(
	ctx context.Context,
	ep Endpoint,
	req []byte,
	localPort int,
	timeout time.Duration,
) ([]byte, bool, error) {
	if timeout < time.Millisecond {
		timeout = time.Millisecond
	}

	raddr, err := net.ResolveUDPAddr("udp", ep.String())
	if err != nil {
		return nil, false, fmt.Errorf("%w: resolve %s: %v", ErrTransport, ep, err)
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: localPort})
	if err != nil {
		return nil, false, fmt.Errorf("%w: bind local port %d: %v", ErrTransport, localPort, err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, false, fmt.Errorf("%w: set deadline: %v", ErrTransport, err)
	}

	// Cancellation pulls the read deadline in; the read below then unblocks.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.WriteToUDP(req, raddr); err != nil {
		return nil, false, fmt.Errorf("%w: send to %s: %v", ErrTransport, ep, err)
	}

	buf := make([]byte, ReceiveBufferSize)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: receive from %s: %v", ErrTransport, ep, err)
	}

	out := make([]byte, n)
	copy(out, buf[:n])
	return out, true, nil
}

// Client binds an endpoint and a local port so callers only pass payloads.
type Client struct {
	Endpoint  Endpoint
	LocalPort int
}

// Exchange performs one transaction against c.Endpoint.
func (c Client) Exchange(ctx context.Context, req []byte, timeout time.Duration) ([]byte, bool, error) {
	return Exchange(ctx, c.Endpoint, req, c.LocalPort, timeout)
}
