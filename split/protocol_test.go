package split

import (
	"bytes"
	"io"
	"testing"
)

func TestProtocolRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)

	ctBytes := []byte("test ciphertext data")
	err := writer.SendForward(1, ctBytes, 2, 1.234)
	if err != nil {
		t.Fatalf("SendForward failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	payload, err := reader.ReceiveForward()
	if err != nil {
		t.Fatalf("ReceiveForward failed: %v", err)
	}

	if payload.SampleID != 1 {
		t.Errorf("SampleID = %d, want 1", payload.SampleID)
	}
	if payload.Level != 2 {
		t.Errorf("Level = %d, want 2", payload.Level)
	}
	if payload.ScaleFloat != 1.234 {
		t.Errorf("ScaleFloat = %f, want 1.234", payload.ScaleFloat)
	}
	if !bytes.Equal(payload.Ciphertext, ctBytes) {
		t.Errorf("Ciphertext mismatch")
	}
}

func TestProtocolStream(t *testing.T) {
	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)
	for i := 0; i < 3; i++ {
		if err := writer.SendForwardResult(i, []byte{byte(i)}, 1, 2.5); err != nil {
			t.Fatalf("SendForwardResult %d failed: %v", i, err)
		}
	}
	if err := writer.SendDone(); err != nil {
		t.Fatalf("SendDone failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	for i := 0; i < 3; i++ {
		payload, err := reader.ReceiveForward()
		if err != nil {
			t.Fatalf("ReceiveForward %d failed: %v", i, err)
		}
		if payload.SampleID != i || payload.Ciphertext[0] != byte(i) {
			t.Errorf("payload %d out of order: %+v", i, payload)
		}
	}
	if _, err := reader.ReceiveForward(); err != io.EOF {
		t.Errorf("Expected io.EOF after done, got %v", err)
	}
}

func TestProtocolError(t *testing.T) {
	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)

	err := writer.SendError(io.ErrUnexpectedEOF)
	if err != nil {
		t.Fatalf("SendError failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	_, err = reader.ReceiveForward()
	if err == nil {
		t.Errorf("Expected error after SendError")
	}
}

func TestMessageTypes(t *testing.T) {
	if MsgForwardInput != 0 {
		t.Errorf("MsgForwardInput = %d, want 0", MsgForwardInput)
	}
	if MsgForwardOutput != 1 {
		t.Errorf("MsgForwardOutput = %d, want 1", MsgForwardOutput)
	}
	if MsgDone != 2 {
		t.Errorf("MsgDone = %d, want 2", MsgDone)
	}
	if MsgError != 3 {
		t.Errorf("MsgError = %d, want 3", MsgError)
	}
	if MsgDone.String() != "done" || MessageType(9).String() != "MessageType(9)" {
		t.Errorf("unexpected MessageType names")
	}
}
