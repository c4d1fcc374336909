// Package broker runs the TCP server that accepts Kafka client connections,
// frames requests and responses, and dispatches to the protocol handlers in
// internal/api.
package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/dmoss/kraft-broker/internal/api"
	"github.com/dmoss/kraft-broker/internal/kafkaproto"
	"github.com/dmoss/kraft-broker/internal/metadata"
)

// Server listens for Kafka client connections and serves them against a
// fixed metadata index and log directory.
type Server struct {
	Addr    string
	LogDir  string
	Cluster *metadata.Cluster
	Logger  *slog.Logger

	// Listener, if set, is used instead of opening Addr, avoiding the
	// TOCTOU race between binding a port and learning what it is —
	// tests use this to bind an ephemeral port up front.
	Listener net.Listener
}

// listenConfig enables SO_REUSEPORT so a restarted broker can rebind the
// same address immediately, the same way a Kafka broker does.
var listenConfig = net.ListenConfig{
	Control: func(_, _ string, c syscall.RawConn) error {
		var sockErr error
		if err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		}); err != nil {
			return err
		}
		return sockErr
	},
}

// Run listens on s.Addr and serves connections until ctx is cancelled or
// accept fails. Each connection is handled on its own goroutine; all
// connections share read-only access to s.Cluster.
func (s *Server) Run(ctx context.Context) error {
	ln := s.Listener
	if ln == nil {
		var err error
		ln, err = listenConfig.Listen(ctx, "tcp", s.Addr)
		if err != nil {
			return fmt.Errorf("broker: listen on %s: %w", s.Addr, err)
		}
	}
	s.logger().Info("listening", "addr", ln.Addr())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("broker: accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// handleConn runs the per-connection request/response loop:
// requests are processed strictly in order, one response fully written
// before the next request is read. Any decode or dispatch error closes the
// connection; a clean EOF between frames closes it silently.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := s.logger().With("remote", conn.RemoteAddr())
	log.Debug("connection accepted")

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		frame, err := readFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("connection closed by peer")
				return
			}
			log.Warn("closing connection after read error", "error", err)
			return
		}

		response, err := api.Dispatch(s.Cluster, s.LogDir, frame)
		if err != nil {
			log.Warn("closing connection after dispatch error", "error", err)
			return
		}

		if _, err := conn.Write(response); err != nil {
			log.Warn("closing connection after write error", "error", err)
			return
		}
	}
}

// readFrame reads the 4-byte big-endian length prefix and then exactly
// that many bytes. An EOF on the length prefix is a
// clean disconnect; any other short read is unexpected and reported.
func readFrame(conn net.Conn) ([]byte, error) {
	prefix := make([]byte, 4)
	if _, err := io.ReadFull(conn, prefix); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: length prefix", kafkaproto.ErrTruncated)
		}
		return nil, err
	}

	length := int32(prefix[0])<<24 | int32(prefix[1])<<16 | int32(prefix[2])<<8 | int32(prefix[3])
	if length < 0 {
		return nil, fmt.Errorf("%w: negative frame length %d", kafkaproto.ErrTruncated, length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return nil, fmt.Errorf("%w: frame body: %v", kafkaproto.ErrTruncated, err)
	}
	return buf, nil
}
