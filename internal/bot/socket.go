package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"kinobot/internal/catalog"
	"kinobot/internal/logging"
)

// wireAttachment references a file the connector already staged on local
// disk. Bytes never travel over the socket.
type wireAttachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Path string `json:"path"`
}

type wireUpdate struct {
	Update
	Attachment *wireAttachment `json:"attachment,omitempty"`
}

// wireReply is one outbound frame. Documents are referenced by path; the
// connector reads the file itself.
type wireReply struct {
	Type     string    `json:"type"`
	UserID   int64     `json:"user_id"`
	Text     string    `json:"text,omitempty"`
	Keyboard *Keyboard `json:"keyboard,omitempty"`
	Code     string    `json:"code,omitempty"`
	Title    string    `json:"title,omitempty"`
	Path     string    `json:"path,omitempty"`
	Caption  string    `json:"caption,omitempty"`
}

// SocketServer accepts connector connections on a Unix domain socket. Each
// connection streams newline-delimited JSON updates in and replies out;
// updates on one connection are handled in order.
type SocketServer struct {
	path       string
	dispatcher *Dispatcher
	logger     *slog.Logger
	listener   net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSocketServer binds the transport socket, replacing any stale socket file.
func NewSocketServer(ctx context.Context, path string, dispatcher *Dispatcher, logger *slog.Logger) (*SocketServer, error) {
	if dispatcher == nil {
		return nil, errors.New("socket server requires dispatcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &SocketServer{
		path:       path,
		dispatcher: dispatcher,
		logger:     logger,
		listener:   listener,
		ctx:        serverCtx,
		cancel:     cancel,
	}, nil
}

// Serve accepts connections until the context is canceled or Close is called.
func (s *SocketServer) Serve() {
	s.logger.Debug("transport listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.serveConn(c)
			}(conn)
		}
	}()
}

// Close stops accepting, waits for in-flight updates, and removes the socket.
func (s *SocketServer) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

func (s *SocketServer) serveConn(conn net.Conn) {
	defer conn.Close()

	sender := &connSender{enc: json.NewEncoder(conn)}
	dec := json.NewDecoder(conn)
	for {
		var wire wireUpdate
		if err := dec.Decode(&wire); err != nil {
			if !errors.Is(err, io.EOF) && s.ctx.Err() == nil {
				s.logger.Warn("malformed update", logging.Error(err))
			}
			return
		}
		upd := wire.Update
		if wire.Attachment != nil {
			att := *wire.Attachment
			upd.Attachment = &Attachment{
				Name: att.Name,
				Size: att.Size,
				Open: func() (io.ReadCloser, error) {
					return os.Open(att.Path)
				},
			}
		}
		if err := s.dispatcher.HandleUpdate(s.ctx, upd, sender); err != nil {
			s.logger.Error("update handling failed",
				logging.Int64("user", upd.UserID),
				logging.Error(err))
		}
	}
}

// connSender writes replies back on the originating connection. Encoder
// writes are serialized so concurrent deliveries cannot interleave frames.
type connSender struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (c *connSender) SendMessage(_ context.Context, userID int64, text string, keyboard *Keyboard) error {
	return c.write(wireReply{
		Type:     "message",
		UserID:   userID,
		Text:     text,
		Keyboard: keyboard,
	})
}

func (c *connSender) SendDocument(_ context.Context, userID int64, entry *catalog.Entry, _ *os.File, caption string) error {
	return c.write(wireReply{
		Type:    "document",
		UserID:  userID,
		Code:    entry.Code,
		Title:   entry.Title,
		Path:    entry.FilePath,
		Caption: caption,
	})
}

func (c *connSender) write(reply wireReply) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(reply); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	return nil
}
