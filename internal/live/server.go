// Package live serves the view-models over a websocket.
//
// A client connects to /live and sends a hello frame, optionally carrying
// the id of a session it held before. The server answers with a welcome
// frame and from then on the client sends intent frames and receives the
// state of every open screen, plus toasts and errors. A dropped
// connection detaches its session, which stays resumable for the resume
// window.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/foodit-dev/foodit/internal/api"
	"github.com/foodit-dev/foodit/internal/errors"
	"github.com/foodit-dev/foodit/internal/images"
	"github.com/foodit-dev/foodit/internal/metrics"
)

// Deps are the collaborators of a Server.
type Deps struct {
	// Repositories returns the data sources for a new session.
	Repositories func() Repositories

	// Images stores profile pictures. Optional.
	Images images.Store

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// APIRepositories returns a Repositories factory backed by c. Each
// session gets its own token store so logins do not leak across clients.
func APIRepositories(c *api.Client) func() Repositories {
	return func() Repositories {
		sc := c.WithTokens(&api.MemoryTokens{})
		return Repositories{
			Restaurants: sc.Restaurants(),
			Favourites:  sc.Favourites(),
			Reviews:     sc.Reviews(),
			Users:       sc.Users(),
		}
	}
}

// Server is the live websocket server.
type Server struct {
	cfg      Config
	deps     Deps
	logger   *slog.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
	manager  *Manager
}

// New creates a Server and starts its session cleanup.
func New(cfg Config, deps Deps) *Server {
	cfg = cfg.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger,
		metrics: deps.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		},
	}
	factories := Screens()
	s.manager = newManager(cfg, func() sessionDeps {
		d := sessionDeps{
			logger:    logger,
			metrics:   deps.Metrics,
			factories: factories,
		}
		if deps.Repositories != nil {
			d.repos = deps.Repositories()
		}
		if deps.Images != nil {
			d.images = deps.Images
		}
		return d
	}, logger, deps.Metrics)
	return s
}

// Sessions returns the session manager.
func (s *Server) Sessions() *Manager { return s.manager }

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Get("/live", s.ServeLive)

	if s.deps.Images != nil {
		r.Method(http.MethodPost, "/images", images.UploadHandler(s.deps.Images, s.cfg.MaxImageSize, s.logger))
		switch st := s.deps.Images.(type) {
		case http.Handler:
			r.Handle("/images/*", http.StripPrefix("/images", st))
		case interface{ Handler() http.Handler }:
			r.Handle("/images/*", http.StripPrefix("/images", st.Handler()))
		}
	}
	return r
}

// ServeLive upgrades the request and runs the connection until it drops.
func (s *Server) ServeLive(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.metrics.RecordWebSocketError("upgrade")
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	ws.SetReadLimit(s.cfg.MaxMessageSize)

	hello, err := s.readHello(ws)
	if err != nil {
		s.metrics.RecordWebSocketError("handshake")
		s.logger.Debug("handshake failed", "error", err, "remote", r.RemoteAddr)
		_ = ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		_ = ws.WriteJSON(errorFrame("", err))
		_ = ws.Close()
		return
	}

	resumed := true
	sess := s.manager.Resume(hello.SessionID)
	if sess == nil {
		resumed = false
		sess = s.manager.Create()
	}

	c := newConn(ws, s.cfg.WriteTimeout)
	if err := sess.attach(c, resumed); err != nil {
		s.metrics.RecordWebSocketError("write")
		return
	}
	if resumed {
		sess.logger.Info("session resumed")
	}

	s.readLoop(sess, c)
}

func (s *Server) readHello(ws *websocket.Conn) (ClientFrame, error) {
	_ = ws.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		return ClientFrame{}, errors.New("E204").WithDetail("no hello frame").Wrap(err)
	}
	f, err := decodeClientFrame(msg)
	if err != nil {
		return ClientFrame{}, err
	}
	if f.Type != FrameHello {
		return ClientFrame{}, errors.New("E204").WithDetailf("expected hello, got %q", f.Type)
	}
	s.metrics.RecordFrame("in", FrameHello)
	return f, nil
}

func (s *Server) readLoop(sess *Session, c *conn) {
	defer sess.detach(c)

	ws := c.ws
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for {
		_ = ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.metrics.RecordWebSocketError("read")
				sess.logger.Debug("read failed", "error", err)
			}
			return
		}
		sess.touch()

		f, err := decodeClientFrame(msg)
		if err != nil {
			s.metrics.RecordFrame("in", "invalid")
			s.reply(sess, c, errorFrame("", err))
			continue
		}
		s.metrics.RecordFrame("in", f.Type)

		switch f.Type {
		case FrameIntent:
			if err := sess.handle(f); err != nil {
				sess.logger.Debug("intent failed", "frame", f.String(), "error", err)
				s.reply(sess, c, errorFrame(f.Screen, err))
			}
		case FrameHello:
			s.reply(sess, c, errorFrame("", errors.New("E204").WithDetail("already connected")))
		default:
			s.reply(sess, c, errorFrame(f.Screen, errors.New("E204").WithDetailf("unknown frame type %q", f.Type)))
		}
	}
}

func (s *Server) reply(sess *Session, c *conn, f ServerFrame) {
	if !c.send(f) {
		sess.logger.Warn("reply dropped", "type", f.Type)
	}
}

// Shutdown closes every session.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.manager.Shutdown(ctx)
}
