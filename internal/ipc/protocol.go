// Package ipc provides control-socket communication between the askd
// daemon and client tools.
//
// Messages are a fixed 16-byte header followed by a JSON payload.
package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"askd/internal/dispatch"
)

// Protocol constants for compatibility checking.
const (
	ProtocolVersion = 1
	ProtocolMagic   = 0x41495043 // "AIPC"
)

// MessageType identifies the type of IPC message.
type MessageType uint16

const (
	// Control messages (0x00xx)
	MsgPing     MessageType = 0x0001
	MsgPong     MessageType = 0x0002
	MsgError    MessageType = 0x0005
	MsgShutdown MessageType = 0x0006

	// Status messages (0x01xx)
	MsgStatusRequest  MessageType = 0x0100
	MsgStatusResponse MessageType = 0x0101

	// Assistant operations (0x02xx)
	MsgAskRequest  MessageType = 0x0200
	MsgAskResponse MessageType = 0x0201

	// Configuration (0x03xx)
	MsgSetAutoExecute     MessageType = 0x0300
	MsgSetAutoExecuteResp MessageType = 0x0301

	// Session management (0x04xx)
	MsgNewSession     MessageType = 0x0400
	MsgNewSessionResp MessageType = 0x0401

	// Notes (0x05xx)
	MsgListNotes     MessageType = 0x0500
	MsgListNotesResp MessageType = 0x0501
)

// Header is the fixed-size message header (16 bytes).
type Header struct {
	Magic     uint32
	Version   uint8
	Flags     uint8
	Type      MessageType
	RequestID uint32
	Length    uint32 // payload length, not including header
}

// HeaderSize is the size of the header in bytes.
const HeaderSize = 16

// maxPayload bounds a single message payload.
const maxPayload = 16 * 1024 * 1024

// Message wraps a header and payload.
type Message struct {
	Header  Header
	Payload []byte
}

// NewMessage creates a message with the given type and payload.
func NewMessage(msgType MessageType, requestID uint32, payload []byte) *Message {
	return &Message{
		Header: Header{
			Magic:     ProtocolMagic,
			Version:   ProtocolVersion,
			Type:      msgType,
			RequestID: requestID,
			Length:    uint32(len(payload)),
		},
		Payload: payload,
	}
}

// Write writes the header to a writer.
func (h *Header) Write(w io.Writer) error {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = h.Flags
	binary.BigEndian.PutUint16(buf[6:8], uint16(h.Type))
	binary.BigEndian.PutUint32(buf[8:12], h.RequestID)
	binary.BigEndian.PutUint32(buf[12:16], h.Length)
	_, err := w.Write(buf)
	return err
}

// ReadHeader reads and validates a header.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	h := &Header{
		Magic:     binary.BigEndian.Uint32(buf[0:4]),
		Version:   buf[4],
		Flags:     buf[5],
		Type:      MessageType(binary.BigEndian.Uint16(buf[6:8])),
		RequestID: binary.BigEndian.Uint32(buf[8:12]),
		Length:    binary.BigEndian.Uint32(buf[12:16]),
	}

	if h.Magic != ProtocolMagic {
		return nil, fmt.Errorf("invalid magic number: %x", h.Magic)
	}
	if h.Version > ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", h.Version)
	}
	return h, nil
}

// Write writes the message to a writer.
func (m *Message) Write(w io.Writer) error {
	if err := m.Header.Write(w); err != nil {
		return err
	}
	if len(m.Payload) > 0 {
		_, err := w.Write(m.Payload)
		return err
	}
	return nil
}

// ReadMessage reads a complete message from a reader.
func ReadMessage(r io.Reader) (*Message, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	m := &Message{Header: *h}
	if h.Length > 0 {
		if h.Length > maxPayload {
			return nil, fmt.Errorf("payload too large: %d bytes", h.Length)
		}
		m.Payload = make([]byte, h.Length)
		if _, err := io.ReadFull(r, m.Payload); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Request/response payloads

// ErrorResponse is sent when an operation fails.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrUnknown        = 1
	ErrInvalidRequest = 2
	ErrInternalError  = 3
	ErrBusy           = 4
)

// StatusResponse contains daemon status.
type StatusResponse struct {
	Version     string        `json:"version"`
	StartedAt   time.Time     `json:"started_at"`
	Uptime      time.Duration `json:"uptime"`
	Chord       string        `json:"chord"`
	Listening   bool          `json:"listening"`
	AutoExecute bool          `json:"auto_execute"`
	Provider    string        `json:"provider"`
	SessionFile string        `json:"session_file"`
	NoteCount   int64         `json:"note_count"`
}

// AskRequest submits a typed question, bypassing voice capture.
type AskRequest struct {
	Question string `json:"question"`

	// WithCapture attaches a fresh screenshot to the question.
	WithCapture bool `json:"with_capture,omitempty"`
}

// AskResponse carries the assistant's answer and action outcomes.
type AskResponse struct {
	Success bool             `json:"success"`
	Speech  string           `json:"speech,omitempty"`
	Actions []dispatch.Entry `json:"actions,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// SetAutoExecuteRequest toggles macro auto-execution at runtime.
type SetAutoExecuteRequest struct {
	Enabled bool `json:"enabled"`
}

// SetAutoExecuteResponse acknowledges the toggle.
type SetAutoExecuteResponse struct {
	Success bool   `json:"success"`
	Enabled bool   `json:"enabled"`
	Error   string `json:"error,omitempty"`
}

// NewSessionResponse reports the fresh transcript path.
type NewSessionResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListNotesRequest requests recent notes.
type ListNotesRequest struct {
	Limit int `json:"limit,omitempty"`
}

// NoteSummary is one stored note.
type NoteSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ListNotesResponse contains recent notes, newest first.
type ListNotesResponse struct {
	Notes []NoteSummary `json:"notes"`
}
