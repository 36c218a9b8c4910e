package wsserver

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/misaka00251/sherpa/internal/dispatcher"
	"github.com/misaka00251/sherpa/internal/httpstatic"
	"github.com/misaka00251/sherpa/internal/metrics"
	"github.com/misaka00251/sherpa/internal/recognizer"
	"github.com/misaka00251/sherpa/internal/registry"
)

// Config carries the knobs the front-end needs that come from server
// configuration.
type Config struct {
	Addr        string
	TailPadding time.Duration
}

// Server is the WebSocket/HTTP front-end: a single listening socket that
// routes HTTP GETs to the static handler or /metrics, and upgrades
// WebSocket handshakes into a Conn running its own read loop.
type Server struct {
	cfg    Config
	rec    recognizer.Recognizer
	reg    *registry.Registry
	disp   *dispatcher.Dispatcher
	static *httpstatic.Handler
	log    *zap.Logger

	httpSrv *http.Server

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// New builds a Server. static may be nil only if the caller never intends
// to serve any HTTP GET other than WebSocket upgrades and /metrics, which
// does not happen in normal operation — New startup validation of the
// document root happens one layer up, in httpstatic.New.
func New(cfg Config, rec recognizer.Recognizer, reg *registry.Registry, disp *dispatcher.Dispatcher, static *httpstatic.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		rec:    rec,
		reg:    reg,
		disp:   disp,
		static: static,
		log:    log,
		conns:  make(map[*Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", s.handleRoot)

	s.httpSrv = &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}
	return s
}

// handleRoot dispatches a WebSocket upgrade if the request carries the
// handshake headers, otherwise falls through to the static handler.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Upgrade") != "" {
		s.handleUpgrade(w, r)
		return
	}
	s.static.ServeHTTP(w, r)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	respHeaders, err := upgradeHeaders(r)
	if err != nil {
		s.log.Debug("rejected upgrade", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "websocket upgrade unsupported", http.StatusInternalServerError)
		return
	}
	nc, rw, err := hijacker.Hijack()
	if err != nil {
		s.log.Warn("hijack failed", zap.Error(err))
		return
	}

	if err := writeHandshakeResponse(rw.Writer, respHeaders); err != nil {
		s.log.Warn("handshake write failed", zap.Error(err))
		_ = nc.Close()
		return
	}

	conn, err := NewConn(nc, s.rec, s.reg, s.disp, ConnConfig{TailPadding: s.cfg.TailPadding}, s.log)
	if err != nil {
		s.log.Warn("connection setup failed", zap.Error(err))
		_ = nc.Close()
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	go func() {
		conn.Serve()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()
}

func writeHandshakeResponse(w *bufio.Writer, headers http.Header) error {
	if _, err := w.WriteString("HTTP/1.1 101 Switching Protocols\r\n"); err != nil {
		return err
	}
	for k, vs := range headers {
		for _, v := range vs {
			if _, err := w.WriteString(k + ": " + v + "\r\n"); err != nil {
				return err
			}
		}
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	return w.Flush()
}

// ListenAndServe binds the configured address with SO_REUSEADDR enabled and
// serves until the process is signaled to stop.
func (s *Server) ListenAndServe() error {
	lc := net.ListenConfig{Control: setReuseAddr}
	ln, err := lc.Listen(context.Background(), "tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.httpSrv.Serve(ln)
}

// Shutdown stops accepting new connections and waits up to the context
// deadline for in-flight HTTP requests to finish; open WebSocket
// connections are closed directly since they are hijacked and outside
// http.Server's own graceful-shutdown bookkeeping.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)

	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.nc.Close()
	}
	return err
}
