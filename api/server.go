package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/session"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("api")

// SessionCookie is the name of the cookie holding the session id
const SessionCookie = "dshop.sid"

// Server is the REST storefront. It serves the routes of the shop on top of any
// shop.IShop, a local shard as well as an RPC client of a remote one.
type Server struct {
	config   Config
	shop     shop.IShop
	sessions *session.Store
	metrics  *serverMetrics
	handler  http.Handler

	mu     sync.Mutex // Protects server and closed
	server *http.Server
	closed bool
}

// NewServer creates the REST server for a shop
//
// Usage:
//
//	s := api.NewServer(api.Config{Endpoint: ":3000"}, shop)
//	defer s.Close()
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewServer(config Config, s shop.IShop) *Server {
	config = config.withDefaults()
	srv := &Server{
		config:   config,
		shop:     s,
		sessions: session.NewStore(config.SessionTTL, config.SessionCheckPeriod),
	}
	srv.metrics = newServerMetrics(srv.sessions.Len)
	srv.handler = withRequestID(srv.routes())

	Logger.Infof("Created REST Server")
	Logger.Infof("%s", config.String())
	return srv
}

// Handler returns the http.Handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve listens on the configured endpoint until ctx is done
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return listener.Close()
	}
	s.server = &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	server := s.server
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = s.shutdown()
	}()

	Logger.Infof("Starting REST server on %s", listener.Addr())

	if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the http server and the session sweeper
func (s *Server) Close() error {
	err := s.shutdown()
	s.sessions.Close()
	return err
}

func (s *Server) shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// --------------------------------------------------------------------------
// Routing
// --------------------------------------------------------------------------

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, s.instrument(pattern, h))
	}

	// auth
	handle("POST /api/register", s.public(s.register))
	handle("POST /api/login", s.public(s.login))
	handle("POST /api/logout", s.public(s.logout))
	handle("GET /api/user", s.user(s.currentUser))

	// products
	handle("GET /api/products", s.public(s.listProducts))
	handle("GET /api/products/{id}", s.public(s.getProduct))
	handle("POST /api/products", s.admin(s.createProduct))
	handle("PUT /api/products/{id}", s.admin(s.updateProduct))
	handle("DELETE /api/products/{id}", s.admin(s.deleteProduct))

	// cart
	handle("GET /api/cart", s.user(s.getCart))
	handle("POST /api/cart", s.user(s.addToCart))
	handle("PUT /api/cart/{id}", s.user(s.updateCartItem))
	handle("DELETE /api/cart/{id}", s.user(s.removeFromCart))
	handle("DELETE /api/cart", s.user(s.clearCart))

	// orders
	handle("GET /api/orders", s.user(s.listOrders))
	handle("GET /api/orders/{id}", s.user(s.getOrder))
	handle("POST /api/orders", s.user(s.checkout))
	handle("PUT /api/orders/{id}/status", s.admin(s.updateOrderStatus))

	// operations
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		s.metrics.write(w)
	})

	return mux
}

// --------------------------------------------------------------------------
// Handler adapters
// --------------------------------------------------------------------------

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

type userHandlerFunc func(w http.ResponseWriter, r *http.Request, user model.User) error

// public serves a route that needs no session
func (s *Server) public(h handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			writeError(w, r, err)
		}
	})
}

// user serves a route that requires a logged in user
func (s *Server) user(h userHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.sessionUser(r)
		if err == nil {
			err = h(w, r, user)
		}
		if err != nil {
			writeError(w, r, err)
		}
	})
}

// admin serves a route that requires a logged in admin
func (s *Server) admin(h userHandlerFunc) http.Handler {
	return s.user(func(w http.ResponseWriter, r *http.Request, user model.User) error {
		if user.Role != model.RoleAdmin {
			return errForbidden
		}
		return h(w, r, user)
	})
}
