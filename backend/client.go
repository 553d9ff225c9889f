package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"distmul/matrix"
	"distmul/wire"
)

// ErrUnknownBackend is returned for a backend index outside the configured list.
var ErrUnknownBackend = errors.New("unknown backend")

// Client calls remote backends over the wire protocol. Every call dials a
// fresh connection, sends one request and closes the connection once the
// result is read.
type Client struct {
	addresses []string
	dialer    net.Dialer
	nextID    atomic.Uint64
}

// NewClient returns a client for the given backend addresses. The address
// list is copied and never modified afterwards.
func NewClient(addresses []string, dialTimeout time.Duration) *Client {
	return &Client{
		addresses: append([]string(nil), addresses...),
		dialer:    net.Dialer{Timeout: dialTimeout},
	}
}

// BackendCount returns the number of configured backends.
func (c *Client) BackendCount() int {
	return len(c.addresses)
}

// Address returns the network address of backend index.
func (c *Client) Address(index int) (string, error) {
	if index < 0 || index >= len(c.addresses) {
		return "", fmt.Errorf("%w: index %d of %d", ErrUnknownBackend, index, len(c.addresses))
	}
	return c.addresses[index], nil
}

// Multiply asks backend index to compute a×b.
func (c *Client) Multiply(ctx context.Context, a, b *matrix.Matrix, index int) (*matrix.Matrix, error) {
	addr, err := c.Address(index)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, addr, wire.MsgMultiply, a, b)
}

// Add asks backend index to compute a+b.
func (c *Client) Add(ctx context.Context, a, b *matrix.Matrix, index int) (*matrix.Matrix, error) {
	addr, err := c.Address(index)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, addr, wire.MsgAdd, a, b)
}

// MultiplyMultiThread asks the backend at address to compute a×b with its
// own multi-core kernel. The address does not need to be configured.
func (c *Client) MultiplyMultiThread(ctx context.Context, a, b *matrix.Matrix, address string) (*matrix.Matrix, error) {
	return c.call(ctx, address, wire.MsgMultiplyParallel, a, b)
}

func (c *Client) call(ctx context.Context, address string, op wire.MessageType, a, b *matrix.Matrix) (*matrix.Matrix, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, c.ioError(ctx, address, op, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	// Unblock reads and writes as soon as ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	protocol := wire.NewProtocol(conn, conn)
	id := c.nextID.Add(1)
	if err := protocol.SendRequest(op, id, a, b); err != nil {
		return nil, c.ioError(ctx, address, op, err)
	}
	resp, err := protocol.ReceiveResult()
	if err != nil {
		return nil, c.ioError(ctx, address, op, err)
	}
	if resp.RequestID != id {
		return nil, fmt.Errorf("%s %s: response for request %d, want %d", op, address, resp.RequestID, id)
	}
	// Best effort: the server also stops on EOF.
	protocol.SendDone()

	result := resp.Result
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, address, err)
	}
	return &result, nil
}

func (c *Client) ioError(ctx context.Context, address string, op wire.MessageType, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s %s: %w (%v)", op, address, ctxErr, err)
	}
	return fmt.Errorf("%s %s: %w", op, address, err)
}
