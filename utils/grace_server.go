package utils

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = 5 * time.Minute // downloads of large attachments
	shutdownTimeout     = 30 * time.Second

	gracefulEnvKey     = "IS_GRACEFUL"
	gracefulEnvValue   = gracefulEnvKey + "=1"
	gracefulListenerFD = 3
)

// Server wraps http.Server with signal driven graceful shutdown and
// SIGUSR2 zero-downtime restart (the listener is handed to a forked child).
type Server struct {
	*http.Server

	listener     net.Listener
	isGraceful   bool
	signalChan   chan os.Signal
	shutdownChan chan struct{}
	onShutdown   []func()
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      writeTimeout,
		},
		isGraceful:   os.Getenv(gracefulEnvKey) != "",
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}),
	}
}

// OnShutdown registers fn to run after the HTTP server has drained.
func (srv *Server) OnShutdown(fn func()) {
	srv.onShutdown = append(srv.onShutdown, fn)
}

// ListenAndServe starts serving on tcp and blocks until a shutdown completes.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := srv.getNetListener(addr)
	if err != nil {
		return err
	}
	srv.listener = ln

	go srv.handleSignals()
	err = srv.Server.Serve(srv.listener)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	// Wait until Shutdown finished
	<-srv.shutdownChan
	return nil
}

func (srv *Server) getNetListener(addr string) (net.Listener, error) {
	if srv.isGraceful {
		file := os.NewFile(gracefulListenerFD, "")
		ln, err := net.FileListener(file)
		if err != nil {
			return nil, fmt.Errorf("net.FileListener error: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.Listen error: %w", err)
	}
	return ln, nil
}

func (srv *Server) handleSignals() {
	signal.Notify(srv.signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)

	for sig := range srv.signalChan {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			Logger.Info("graceful shutdown", zap.String("signal", sig.String()))
			srv.shutdown()
			return
		case syscall.SIGUSR2:
			pid, err := srv.startNewProcess()
			if err != nil {
				Logger.Error("graceful restart failed, continue serving", zap.Error(err))
				continue
			}
			Logger.Info("graceful restart, new process started", zap.Int("pid", pid))
			srv.shutdown()
			return
		}
	}
}

func (srv *Server) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		Logger.Info("HTTP server shutdown success")
	}
	for _, fn := range srv.onShutdown {
		fn()
	}
	close(srv.shutdownChan)
}

// startNewProcess forks the current binary and passes it the listening socket.
func (srv *Server) startNewProcess() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener is not *net.TCPListener")
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("get listener file: %w", err)
	}

	envs := []string{}
	for _, e := range os.Environ() {
		if e != gracefulEnvValue {
			envs = append(envs, e)
		}
	}
	envs = append(envs, gracefulEnvValue)

	attr := &syscall.ProcAttr{
		Env:   envs,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	}
	pid, err := syscall.ForkExec(os.Args[0], os.Args, attr)
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return pid, nil
}

// GraceServer builds a Server with the default timeouts.
func GraceServer(addr string, handler http.Handler) *Server {
	return NewServer(addr, handler, defaultReadTimeout, defaultWriteTimeout)
}
