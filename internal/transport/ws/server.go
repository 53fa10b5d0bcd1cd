// Package ws serves the intake conversation over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/medintake/internal/config"
	"github.com/xiaot623/medintake/internal/domain"
	"github.com/xiaot623/medintake/internal/service"
)

// inboxSize bounds the frames a connection may queue while a turn runs.
const inboxSize = 16

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	service  *service.Service
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, svc *service.Service) *Server {
	allowed := make(map[string]bool, len(cfg.CORSAllowedOrigins))
	for _, o := range cfg.CORSAllowedOrigins {
		allowed[o] = true
	}

	return &Server{
		cfg:     cfg,
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// connection is a single WebSocket client.
type connection struct {
	id    string
	conn  *websocket.Conn
	send  chan []byte
	inbox chan []byte
	ctx   context.Context
	stop  context.CancelFunc
	once  sync.Once
}

func (c *connection) close() {
	c.once.Do(func() {
		c.stop()
		c.conn.Close()
	})
}

// enqueue hands a frame to the write pump. It drops the frame once the
// connection is closed.
func (c *connection) enqueue(frame ServerFrame) {
	frame.Ts = time.Now().UnixMilli()
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("WARN: failed to marshal %s frame: %v", frame.Type, err)
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	conn := &connection{
		id:    uuid.New().String(),
		conn:  ws,
		send:  make(chan []byte, 64),
		inbox: make(chan []byte, inboxSize),
		ctx:   ctx,
		stop:  cancel,
	}

	ws.SetReadLimit(s.cfg.WSMaxMessageSize)
	log.Printf("WebSocket connected: %s from %s", conn.id, c.RealIP())

	go s.writePump(conn)
	go s.worker(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads frames from the WebSocket connection.
func (s *Server) readPump(conn *connection) {
	defer conn.close()

	conn.conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
	conn.conn.SetPongHandler(func(string) error {
		conn.conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		select {
		case conn.inbox <- message:
		default:
			conn.enqueue(ServerFrame{Type: TypeError, Code: ErrorCodeBusy, Message: "too many pending requests"})
		}
	}
}

// writePump writes frames to the WebSocket connection and keeps it alive.
func (s *Server) writePump(conn *connection) {
	ticker := time.NewTicker(s.cfg.WSPingInterval)
	defer func() {
		ticker.Stop()
		conn.close()
	}()

	for {
		select {
		case message := <-conn.send:
			conn.conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if err := conn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-conn.ctx.Done():
			conn.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
			return
		}
	}
}

// worker handles the frames of one connection in arrival order.
func (s *Server) worker(conn *connection) {
	for {
		select {
		case data := <-conn.inbox:
			s.handleMessage(conn, data)
		case <-conn.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches an incoming frame by type.
func (s *Server) handleMessage(conn *connection, data []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		conn.enqueue(ServerFrame{Type: TypeError, Code: ErrorCodeInvalidMessage, Message: "invalid JSON message"})
		return
	}
	if frame.RequestID == "" {
		frame.RequestID = "req_" + uuid.New().String()[:8]
	}

	ctx := conn.ctx
	switch frame.Type {
	case TypeChat:
		if frame.Message == "" {
			conn.enqueue(errorFrame(frame.RequestID, ErrorCodeValidation, "Missing message"))
			return
		}
		res, err := s.service.ProcessMessage(ctx, frame.Name, frame.Message)
		if err != nil {
			conn.enqueue(s.failure(frame, err))
			return
		}
		conn.enqueue(ServerFrame{
			Type:      TypeReply,
			RequestID: frame.RequestID,
			Reply:     res.Reply,
			Stage:     res.Stage,
			Finished:  res.Finished,
		})

	case TypeInfo:
		info, err := s.service.GetInfo(ctx, frame.Name)
		if err != nil {
			conn.enqueue(s.failure(frame, err))
			return
		}
		conn.enqueue(ServerFrame{Type: TypeInfoResp, RequestID: frame.RequestID, Info: info})

	case TypeReset:
		if err := s.service.Reset(ctx, frame.Name); err != nil {
			conn.enqueue(s.failure(frame, err))
			return
		}
		conn.enqueue(ServerFrame{Type: TypeResetAck, RequestID: frame.RequestID, Message: "Session reset successfully"})

	default:
		conn.enqueue(errorFrame(frame.RequestID, ErrorCodeInvalidMessage, "unknown message type: "+frame.Type))
	}
}

func (s *Server) failure(frame ClientFrame, err error) ServerFrame {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return errorFrame(frame.RequestID, ErrorCodeValidation, err.Error())
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrTooManySessions):
		log.Printf("WARN: %s request %s unavailable: %v", frame.Type, frame.RequestID, err)
		return errorFrame(frame.RequestID, ErrorCodeUnavailable, "The assistant is temporarily unavailable, please try again")
	default:
		log.Printf("ERROR: %s request %s failed: %v", frame.Type, frame.RequestID, err)
		return errorFrame(frame.RequestID, ErrorCodeInternalError, "Server error: "+err.Error())
	}
}

func errorFrame(requestID, code, message string) ServerFrame {
	return ServerFrame{Type: TypeError, RequestID: requestID, Code: code, Message: message}
}
