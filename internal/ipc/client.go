package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"
)

// Client talks to a running daemon over the control socket.
type Client struct {
	conn    net.Conn
	timeout time.Duration

	mu     sync.Mutex
	nextID uint32
}

// Dial connects to the daemon socket.
func Dial(socketPath string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// roundTrip sends one request and decodes the matching response into
// out. A nil out discards the payload.
func (c *Client) roundTrip(msgType MessageType, wantType MessageType, payload any, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	reqID := c.nextID

	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	if err := NewMessage(msgType, reqID, data).Write(c.conn); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	resp, err := ReadMessage(c.conn)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.Header.RequestID != reqID {
		return fmt.Errorf("response id mismatch: got %d want %d", resp.Header.RequestID, reqID)
	}

	if resp.Header.Type == MsgError {
		var e ErrorResponse
		if err := json.Unmarshal(resp.Payload, &e); err != nil {
			return fmt.Errorf("daemon error (unparsable payload)")
		}
		return fmt.Errorf("daemon error %d: %s", e.Code, e.Message)
	}
	if resp.Header.Type != wantType {
		return fmt.Errorf("unexpected response type 0x%04x", uint16(resp.Header.Type))
	}

	if out != nil && len(resp.Payload) > 0 {
		if err := json.Unmarshal(resp.Payload, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Ping checks daemon liveness.
func (c *Client) Ping() error {
	return c.roundTrip(MsgPing, MsgPong, nil, nil)
}

// Status fetches daemon status.
func (c *Client) Status() (StatusResponse, error) {
	var resp StatusResponse
	err := c.roundTrip(MsgStatusRequest, MsgStatusResponse, nil, &resp)
	return resp, err
}

// Ask submits a typed question.
func (c *Client) Ask(req AskRequest) (AskResponse, error) {
	var resp AskResponse
	err := c.roundTrip(MsgAskRequest, MsgAskResponse, req, &resp)
	return resp, err
}

// SetAutoExecute toggles macro auto-execution.
func (c *Client) SetAutoExecute(enabled bool) (SetAutoExecuteResponse, error) {
	var resp SetAutoExecuteResponse
	err := c.roundTrip(MsgSetAutoExecute, MsgSetAutoExecuteResp, SetAutoExecuteRequest{Enabled: enabled}, &resp)
	return resp, err
}

// NewSession starts a fresh transcript.
func (c *Client) NewSession() (NewSessionResponse, error) {
	var resp NewSessionResponse
	err := c.roundTrip(MsgNewSession, MsgNewSessionResp, nil, &resp)
	return resp, err
}

// ListNotes fetches recent notes.
func (c *Client) ListNotes(limit int) ([]NoteSummary, error) {
	var resp ListNotesResponse
	err := c.roundTrip(MsgListNotes, MsgListNotesResp, ListNotesRequest{Limit: limit}, &resp)
	return resp.Notes, err
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown() error {
	return c.roundTrip(MsgShutdown, MsgPong, nil, nil)
}
