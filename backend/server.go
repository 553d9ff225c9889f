package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"distmul/matrix"
	"distmul/utils"
	"distmul/wire"
)

// Server answers wire protocol requests on accepted connections.
type Server struct {
	// Workers bounds the goroutines used by parallel multiplications.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	requests atomic.Int64
	failures atomic.Int64
	wg       sync.WaitGroup
}

// NewServer returns a server whose parallel multiplications use workers
// goroutines.
func NewServer(workers int) *Server {
	return &Server{Workers: workers}
}

// Requests returns how many requests the server has answered, failures
// included.
func (s *Server) Requests() int64 { return s.requests.Load() }

// Failures returns how many requests were answered with an error.
func (s *Server) Failures() int64 { return s.failures.Load() }

// Serve accepts connections on ln until ctx is cancelled or ln fails. It
// waits for in-flight connections before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(conn)
		}()
	}
}

// ServeConn runs the request loop for one connection and closes it when the
// peer sends MsgDone or the stream ends.
func (s *Server) ServeConn(conn io.ReadWriteCloser) {
	defer conn.Close()
	protocol := wire.NewProtocol(conn, conn)

	for {
		op, payload, err := protocol.ReceiveRequest()
		if err == io.EOF {
			return
		}
		if err != nil {
			// The gob stream cannot be resynchronized after a bad message.
			utils.Logf("SERVER", "Error: %v", err)
			protocol.SendError(err)
			return
		}

		s.requests.Add(1)
		result, err := s.compute(op, &payload.A, &payload.B)
		if err != nil {
			s.failures.Add(1)
			utils.Logf("SERVER", "Request %d (%s) failed: %v", payload.RequestID, op, err)
			if err := protocol.SendError(err); err != nil {
				return
			}
			continue
		}

		if err := protocol.SendResult(payload.RequestID, result); err != nil {
			utils.Logf("SERVER", "Request %d: send failed: %v", payload.RequestID, err)
			return
		}
	}
}

func (s *Server) compute(op wire.MessageType, a, b *matrix.Matrix) (*matrix.Matrix, error) {
	switch op {
	case wire.MsgMultiply:
		return Multiply(a, b)
	case wire.MsgAdd:
		return Add(a, b)
	case wire.MsgMultiplyParallel:
		return MultiplyParallel(a, b, s.Workers)
	}
	return nil, fmt.Errorf("unsupported operation %s", op)
}
