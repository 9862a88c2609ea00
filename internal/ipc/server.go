package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"askd/internal/logging"
)

// Handler implements the daemon side of the control protocol.
type Handler interface {
	// Status reports current daemon state.
	Status() StatusResponse

	// Ask runs a typed question through the full assistant pipeline.
	Ask(ctx context.Context, req AskRequest) AskResponse

	// SetAutoExecute toggles macro auto-execution.
	SetAutoExecute(enabled bool) error

	// NewSession starts a fresh transcript and returns its path.
	NewSession() (string, error)

	// ListNotes returns recent notes, newest first.
	ListNotes(ctx context.Context, limit int) ([]NoteSummary, error)

	// Shutdown asks the daemon to exit.
	Shutdown()
}

// Server serves the control protocol on a unix socket.
type Server struct {
	socketPath string
	handler    Handler
	timeout    time.Duration
	log        *logging.Logger

	listener net.Listener
	wg       sync.WaitGroup
	closed   atomic.Bool
}

// NewServer creates a control server. timeout bounds each request.
func NewServer(socketPath string, timeout time.Duration, handler Handler, log *logging.Logger) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logging.Default()
	}
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		timeout:    timeout,
		log:        log.WithComponent("ipc"),
	}
}

// Start begins listening on the socket.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}

	// A stale socket from a crashed daemon blocks the bind.
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("restrict socket permissions: %w", err)
	}

	s.listener = ln
	s.wg.Add(1)
	go s.acceptLoop()

	s.log.Info("control socket listening", "path", s.socketPath)
	return nil
}

// Stop closes the listener and waits for in-flight connections.
func (s *Server) Stop() error {
	if s.closed.Swap(true) {
		return nil
	}
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	for {
		msg, err := ReadMessage(conn)
		if err != nil {
			return
		}

		resp := s.dispatch(msg)
		if resp == nil {
			continue
		}
		if err := resp.Write(conn); err != nil {
			s.log.Warn("write response failed", "error", err)
			return
		}
	}
}

func (s *Server) dispatch(msg *Message) *Message {
	reqID := msg.Header.RequestID

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	switch msg.Header.Type {
	case MsgPing:
		return NewMessage(MsgPong, reqID, nil)

	case MsgStatusRequest:
		return s.reply(MsgStatusResponse, reqID, s.handler.Status())

	case MsgAskRequest:
		var req AskRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return s.errorMessage(reqID, ErrInvalidRequest, err.Error())
		}
		return s.reply(MsgAskResponse, reqID, s.handler.Ask(ctx, req))

	case MsgSetAutoExecute:
		var req SetAutoExecuteRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return s.errorMessage(reqID, ErrInvalidRequest, err.Error())
		}
		resp := SetAutoExecuteResponse{Success: true, Enabled: req.Enabled}
		if err := s.handler.SetAutoExecute(req.Enabled); err != nil {
			resp = SetAutoExecuteResponse{Error: err.Error()}
		}
		return s.reply(MsgSetAutoExecuteResp, reqID, resp)

	case MsgNewSession:
		resp := NewSessionResponse{Success: true}
		path, err := s.handler.NewSession()
		if err != nil {
			resp = NewSessionResponse{Error: err.Error()}
		} else {
			resp.Path = path
		}
		return s.reply(MsgNewSessionResp, reqID, resp)

	case MsgListNotes:
		var req ListNotesRequest
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				return s.errorMessage(reqID, ErrInvalidRequest, err.Error())
			}
		}
		notes, err := s.handler.ListNotes(ctx, req.Limit)
		if err != nil {
			return s.errorMessage(reqID, ErrInternalError, err.Error())
		}
		return s.reply(MsgListNotesResp, reqID, ListNotesResponse{Notes: notes})

	case MsgShutdown:
		// Acknowledge before the daemon starts tearing down.
		resp := NewMessage(MsgPong, reqID, nil)
		go s.handler.Shutdown()
		return resp

	default:
		return s.errorMessage(reqID, ErrInvalidRequest,
			fmt.Sprintf("unknown message type 0x%04x", uint16(msg.Header.Type)))
	}
}

func (s *Server) reply(msgType MessageType, reqID uint32, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		return s.errorMessage(reqID, ErrInternalError, err.Error())
	}
	return NewMessage(msgType, reqID, data)
}

func (s *Server) errorMessage(reqID uint32, code int, message string) *Message {
	data, _ := json.Marshal(ErrorResponse{Code: code, Message: message})
	return NewMessage(MsgError, reqID, data)
}
