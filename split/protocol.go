// Package split runs the first dense layer of a trained network on encrypted
// inputs: the client keeps the secret key, the server only sees ciphertexts.
package split

import (
	"encoding/gob"
	"fmt"
	"io"
)

func init() {
	gob.Register(ForwardPayload{})
}

// MessageType defines message types for the split inference exchange
type MessageType int

const (
	MsgForwardInput MessageType = iota
	MsgForwardOutput
	MsgDone
	MsgError
)

func (t MessageType) String() string {
	switch t {
	case MsgForwardInput:
		return "forward-input"
	case MsgForwardOutput:
		return "forward-output"
	case MsgDone:
		return "done"
	case MsgError:
		return "error"
	}
	return fmt.Sprintf("MessageType(%d)", int(t))
}

// Message is one frame on the wire.
type Message struct {
	Type    MessageType
	Payload interface{}
}

// ForwardPayload carries one serialized ciphertext for one sample.
type ForwardPayload struct {
	SampleID   int
	Ciphertext []byte
	Level      int
	ScaleFloat float64
}

// Protocol handles gob framing over a reader/writer pair.
type Protocol struct {
	encoder *gob.Encoder
	decoder *gob.Decoder
}

// NewProtocol creates a new protocol handler. Either side may be nil if it
// is never used.
func NewProtocol(r io.Reader, w io.Writer) *Protocol {
	return &Protocol{
		encoder: gob.NewEncoder(w),
		decoder: gob.NewDecoder(r),
	}
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

// SendForward sends an encrypted input for sampleID.
func (p *Protocol) SendForward(sampleID int, ctBytes []byte, level int, scale float64) error {
	return p.sendPayload(MsgForwardInput, sampleID, ctBytes, level, scale)
}

// SendForwardResult sends the encrypted first-layer output for sampleID.
func (p *Protocol) SendForwardResult(sampleID int, ctBytes []byte, level int, scale float64) error {
	return p.sendPayload(MsgForwardOutput, sampleID, ctBytes, level, scale)
}

func (p *Protocol) sendPayload(t MessageType, sampleID int, ctBytes []byte, level int, scale float64) error {
	return p.Send(&Message{
		Type: t,
		Payload: ForwardPayload{
			SampleID:   sampleID,
			Ciphertext: ctBytes,
			Level:      level,
			ScaleFloat: scale,
		},
	})
}

// SendDone signals completion
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

// ReceiveForward receives a forward payload of either direction. It returns
// io.EOF once the peer sent MsgDone.
func (p *Protocol) ReceiveForward() (*ForwardPayload, error) {
	msg, err := p.Receive()
	if err != nil {
		return nil, err
	}
	if msg.Type == MsgError {
		return nil, fmt.Errorf("remote error: %v", msg.Payload)
	}
	if msg.Type == MsgDone {
		return nil, io.EOF
	}
	if msg.Type != MsgForwardInput && msg.Type != MsgForwardOutput {
		return nil, fmt.Errorf("expected forward message, got %s", msg.Type)
	}
	payload, ok := msg.Payload.(ForwardPayload)
	if !ok {
		return nil, fmt.Errorf("invalid forward payload type %T", msg.Payload)
	}
	return &payload, nil
}
