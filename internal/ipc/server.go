package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"ripwatch/internal/daemon"
	"ripwatch/internal/logging"
	"ripwatch/internal/logs"
)

// Options carries the pieces the RPC service needs beyond the daemon itself.
type Options struct {
	// LogPath is the log file LogTail reads. Empty disables tailing.
	LogPath string
	// OnStop runs after a Stop request has shut the daemon down, so the
	// hosting process can unwind its own run loop.
	OnStop func()
}

// Server answers CLI requests on a unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewServer binds the unix socket at path and registers the RPC service.
// A stale socket file from a previous run is removed first.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, opts Options) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires a daemon")
	}
	if path == "" {
		return nil, errors.New("ipc server requires a socket path")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	componentLogger := logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	svc := &service{
		daemon:  d,
		logger:  componentLogger,
		ctx:     serverCtx,
		logPath: opts.LogPath,
		onStop:  opts.OnStop,
	}
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName("Ripwatch", svc); err != nil {
		cancel()
		listener.Close()
		os.RemoveAll(path)
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    componentLogger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve accepts connections until Close is called. It returns immediately;
// the accept loop runs on its own goroutine.
func (s *Server) Serve() {
	s.logger.Info("control socket listening",
		logging.String("socket_path", s.path),
		logging.String(logging.FieldEventType, "ipc_listening"))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept on control socket failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
			}()
		}
	}()
}

// Close stops accepting connections, waits for in-flight requests, and
// removes the socket file.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.RemoveAll(s.path)
}

// service implements the RPC methods the CLI calls.
type service struct {
	daemon  *daemon.Daemon
	logger  *slog.Logger
	ctx     context.Context
	logPath string
	onStop  func()
}

// Stop shuts the daemon down and then notifies the hosting process.
func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("stop requested over control socket",
		logging.String(logging.FieldEventType, "daemon_stop_requested"))
	s.daemon.Stop()
	resp.Stopped = true
	if s.onStop != nil {
		s.onStop()
	}
	return nil
}

// Status reports the daemon's current state.
func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = s.daemon.Status(s.ctx)
	return nil
}

// History returns recent rip sessions, newest first.
func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	records, err := s.daemon.RecentHistory(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Records = records
	return nil
}

// HistoryClear deletes all rip history.
func (s *service) HistoryClear(_ HistoryClearRequest, resp *HistoryClearResponse) error {
	removed, err := s.daemon.ClearHistory(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logger.Info("rip history cleared",
		logging.Int64("removed_count", removed),
		logging.String(logging.FieldEventType, "history_cleared"))
	return nil
}

// HistoryStats returns rip counts grouped by final state.
func (s *service) HistoryStats(_ HistoryStatsRequest, resp *HistoryStatsResponse) error {
	stats, err := s.daemon.HistoryStats(s.ctx)
	if err != nil {
		return err
	}
	resp.Stats = stats
	return nil
}

// Eject cancels any active session on the device and opens its tray.
func (s *service) Eject(req EjectRequest, resp *EjectResponse) error {
	message, err := s.daemon.Eject(s.ctx, req.Device)
	if err != nil {
		return err
	}
	resp.Message = message
	return nil
}

// TestNotification sends a test message through the configured notifier.
func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		return err
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}

// LogTail reads lines from the daemon log. Follow requests block up to the
// requested wait for new lines; a cancelled wait still returns the offset so
// the client can resume.
func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	if s.logPath == "" {
		resp.Offset = req.Offset
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, s.logPath, logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			resp.Offset = result.Offset
			resp.Lines = result.Lines
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}
