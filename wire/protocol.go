// Package wire provides the message protocol between the orchestrator and the
// compute backends.
package wire

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"distmul/matrix"
)

func init() {
	// Register types for gob encoding
	gob.Register(OperandsPayload{})
	gob.Register(ResultPayload{})
}

// ErrRemote wraps errors reported by the other side of the connection.
var ErrRemote = errors.New("remote error")

// MessageType defines message types for the backend protocol
type MessageType int

const (
	MsgMultiply MessageType = iota
	MsgAdd
	MsgMultiplyParallel
	MsgResult
	MsgDone
	MsgError
)

func (t MessageType) String() string {
	switch t {
	case MsgMultiply:
		return "multiply"
	case MsgAdd:
		return "add"
	case MsgMultiplyParallel:
		return "multiply-parallel"
	case MsgResult:
		return "result"
	case MsgDone:
		return "done"
	case MsgError:
		return "error"
	}
	return fmt.Sprintf("MessageType(%d)", int(t))
}

// IsRequest reports whether t asks the backend to compute something.
func (t MessageType) IsRequest() bool {
	return t == MsgMultiply || t == MsgAdd || t == MsgMultiplyParallel
}

// Message represents a message in the backend protocol
type Message struct {
	Type    MessageType
	Payload interface{}
}

// OperandsPayload carries the two operands of a request
type OperandsPayload struct {
	RequestID uint64
	A         matrix.Matrix
	B         matrix.Matrix
}

// ResultPayload carries the matrix computed for a request
type ResultPayload struct {
	RequestID uint64
	Result    matrix.Matrix
}

// Protocol handles backend communication over one stream
type Protocol struct {
	encoder *gob.Encoder
	decoder *gob.Decoder
}

// NewProtocol creates a new protocol handler
func NewProtocol(r io.Reader, w io.Writer) *Protocol {
	p := &Protocol{}
	if w != nil {
		p.encoder = gob.NewEncoder(w)
	}
	if r != nil {
		p.decoder = gob.NewDecoder(r)
	}
	return p
}

// Send sends a message
func (p *Protocol) Send(msg *Message) error {
	return p.encoder.Encode(msg)
}

// Receive receives a message
func (p *Protocol) Receive() (*Message, error) {
	var msg Message
	if err := p.decoder.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendRequest sends a compute request of the given type
func (p *Protocol) SendRequest(op MessageType, requestID uint64, a, b *matrix.Matrix) error {
	if !op.IsRequest() {
		return fmt.Errorf("%s is not a request type", op)
	}
	return p.Send(&Message{
		Type: op,
		Payload: OperandsPayload{
			RequestID: requestID,
			A:         *a,
			B:         *b,
		},
	})
}

// SendResult sends the result of a request
func (p *Protocol) SendResult(requestID uint64, result *matrix.Matrix) error {
	return p.Send(&Message{
		Type: MsgResult,
		Payload: ResultPayload{
			RequestID: requestID,
			Result:    *result,
		},
	})
}

// SendDone signals that no more requests follow
func (p *Protocol) SendDone() error {
	return p.Send(&Message{Type: MsgDone})
}

// SendError sends an error message
func (p *Protocol) SendError(err error) error {
	return p.Send(&Message{
		Type:    MsgError,
		Payload: err.Error(),
	})
}

// ReceiveRequest receives a compute request. It returns io.EOF once the peer
// has sent MsgDone.
func (p *Protocol) ReceiveRequest() (MessageType, *OperandsPayload, error) {
	msg, err := p.Receive()
	if err != nil {
		return 0, nil, err
	}
	if msg.Type == MsgDone {
		return 0, nil, io.EOF
	}
	if !msg.Type.IsRequest() {
		return 0, nil, fmt.Errorf("expected request message, got %s", msg.Type)
	}
	payload, ok := msg.Payload.(OperandsPayload)
	if !ok {
		return 0, nil, fmt.Errorf("invalid operands payload type")
	}
	return msg.Type, &payload, nil
}

// ReceiveResult receives a result payload
func (p *Protocol) ReceiveResult() (*ResultPayload, error) {
	msg, err := p.Receive()
	if err != nil {
		return nil, err
	}
	if msg.Type == MsgError {
		return nil, fmt.Errorf("%w: %v", ErrRemote, msg.Payload)
	}
	if msg.Type == MsgDone {
		return nil, io.EOF
	}
	if msg.Type != MsgResult {
		return nil, fmt.Errorf("expected result message, got %s", msg.Type)
	}
	payload, ok := msg.Payload.(ResultPayload)
	if !ok {
		return nil, fmt.Errorf("invalid result payload type")
	}
	return &payload, nil
}
