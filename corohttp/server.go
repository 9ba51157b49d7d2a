// Package corohttp wires htx's HTTP engine to a reactor.Runtime,
// giving an embedder a single ListenAndServe call.
package corohttp

import (
	"context"
	"log"
	"os"

	"github.com/badu/corosrv/htx"
	"github.com/badu/corosrv/reactor"
	"github.com/badu/corosrv/task"
)

// Server bootstraps an htx.Handler over a reactor.Runtime. The zero
// value is not ready to use; construct with New or set Config, Handler
// and ErrorLog explicitly before calling ListenAndServe (ErrorLog is
// used without a nil check).
type Server struct {
	Config   htx.Config
	Handler  htx.Handler
	ErrorLog *log.Logger

	// Backlog is the listen backlog passed to netfd.Listen.
	Backlog int
}

// New returns a Server with default configuration and a backlog of
// 128, logging errors to os.Stderr.
func New(handler htx.Handler) *Server {
	return &Server{
		Config:   htx.DefaultConfig(),
		Handler:  handler,
		ErrorLog: log.New(os.Stderr, "", log.LstdFlags),
		Backlog:  128,
	}
}

// ListenAndServe binds port and runs the accept loop to completion
// (it blocks until ctx is done or the listener fails unrecoverably).
// Each accepted connection is served by its own task; the accept loop
// and every connection task are spawned as root tasks (none is
// awaited).
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	rt, err := reactor.New(s.ErrorLog)
	if err != nil {
		return err
	}
	defer rt.Close()

	listener, err := reactor.NewAsyncListener(rt, port, s.Backlog)
	if err != nil {
		return err
	}
	defer listener.Close()

	rt.Spawn(func(y *task.Yielder) (any, error) {
		for {
			conn, err := listener.Accept(y)
			if err != nil {
				s.ErrorLog.Printf("corosrv: accept failed: %v", err)
				return nil, err
			}
			rt.Spawn(func(y *task.Yielder) (any, error) {
				htx.ServeConn(y, conn, s.Config, s.Handler, s.ErrorLog)
				return nil, nil
			})
		}
	})

	rt.Run(ctx)
	return nil
}
