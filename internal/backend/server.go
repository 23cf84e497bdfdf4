package backend

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"sync/atomic"

	"github.com/lucat1/consulns/internal/protocol"
)

// Server is the UNIX socket connection server (spec §4.7): it owns the
// listening socket and socket path, and spawns one handler goroutine per
// accepted connection.
type Server struct {
	SocketPath string
	Handler    *Handler
	Logger     *slog.Logger

	nextConnID atomic.Int64
	listener   net.Listener
}

// NewServer builds a Server listening at socketPath once Run is called.
func NewServer(socketPath string, h *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{SocketPath: socketPath, Handler: h, Logger: logger}
}

// Run creates the listening socket (unlinking any stale path first),
// accepts connections until ctx is cancelled, and unlinks the socket path
// on the way out — spec §4.7's "on server shutdown" contract.
func (s *Server) Run(ctx context.Context) error {
	if err := os.Remove(s.SocketPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "unix", s.SocketPath)
	if err != nil {
		return err
	}
	s.listener = ln

	defer func() {
		_ = ln.Close()
		_ = os.Remove(s.SocketPath)
	}()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	s.Logger.Info("backend server listening", "socket", s.SocketPath)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Logger.Error("accept failed", "error", err)
			return err
		}
		if s.Handler.Metrics != nil {
			s.Handler.Metrics.ObserveConnection()
		}
		id := s.nextConnID.Add(1)
		go s.serveConn(id, conn)
	}
}

// serveConn owns conn for its lifetime: reads newline-framed requests,
// dispatches them, and writes responses, in order, until EOF or a socket
// error (spec §4.7, §5 "ordering guarantees").
func (s *Server) serveConn(id int64, conn net.Conn) {
	log := s.Logger.With("conn_id", id)
	log.Info("connection accepted")
	defer func() {
		_ = conn.Close()
		log.Info("connection closed")
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		resp := s.handleLine(log, line)
		encoded, err := protocol.Encode(resp)
		if err != nil {
			log.Error("encoding response failed", "error", err)
			return
		}
		if _, err := writer.Write(encoded); err != nil {
			log.Error("write failed", "error", err)
			return
		}
		if err := writer.Flush(); err != nil {
			log.Error("flush failed", "error", err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error("read failed", "error", err)
	}
}

// handleLine decodes and dispatches one request line, recovering from any
// panic raised by the handler so the connection survives it (spec §4.7
// "on a handler exception").
func (s *Server) handleLine(log *slog.Logger, line []byte) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panicked", "recovered", r)
			resp = protocol.Fail()
		}
	}()

	q, err := protocol.Decode(line)
	if err != nil {
		log.Warn("malformed request line", "error", err)
		return protocol.Fail()
	}
	return s.Handler.Dispatch(log, q)
}
