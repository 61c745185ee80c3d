// Package api exposes the storefront repository over JSON HTTP.
//
// Routes use net/http method patterns:
//
//	GET    /stores                              all stores with products and orders
//	POST   /stores                              add a store
//	GET    /stores/{storeID}                    one store
//	DELETE /stores/{storeID}                    delete a store and everything under it
//	GET    /stores/{storeID}/products           products of a store
//	POST   /stores/{storeID}/products           add a product
//	GET    /stores/{storeID}/products/{id}      one product
//	PUT    /stores/{storeID}/products/{id}      edit description, price and quantity
//	DELETE /stores/{storeID}/products/{id}      delete a product and its order lines
//	GET    /stores/{storeID}/orders?sort=       store orders of a store
//	POST   /stores/{storeID}/orders             record a store order
//	GET    /users                               all users
//	POST   /users                               register a user
//	POST   /login                               check a password
//	GET    /users/{username}/cart               cart lines
//	POST   /users/{username}/cart               add to cart
//	DELETE /users/{username}/cart               empty the cart
//	PUT    /users/{username}/cart/{orderID}     change a cart line quantity
//	DELETE /users/{username}/cart/{orderID}     remove a cart line
//	POST   /users/{username}/checkout           turn the cart into store orders
//	GET    /users/{username}/orders?sort=       checked-out orders of a user
//	GET    /healthz                             liveness
//
// Errors are returned as {"error":{"code":"...","message":"..."}}.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/storefront/internal/repo"
)

// Server routes HTTP requests to a Repository.
type Server struct {
	repo   *repo.Repository
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Server. A nil logger means slog.Default().
func New(r *repo.Repository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{repo: r, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /healthz", s.health)

	s.handle("GET /stores", s.listStores)
	s.handle("POST /stores", s.createStore)
	s.handle("GET /stores/{storeID}", s.getStore)
	s.handle("DELETE /stores/{storeID}", s.deleteStore)

	s.handle("GET /stores/{storeID}/products", s.listProducts)
	s.handle("POST /stores/{storeID}/products", s.createProduct)
	s.handle("GET /stores/{storeID}/products/{productID}", s.getProduct)
	s.handle("PUT /stores/{storeID}/products/{productID}", s.editProduct)
	s.handle("DELETE /stores/{storeID}/products/{productID}", s.deleteProduct)

	s.handle("GET /stores/{storeID}/orders", s.listStoreOrders)
	s.handle("POST /stores/{storeID}/orders", s.createStoreOrder)

	s.handle("GET /users", s.listUsers)
	s.handle("POST /users", s.createUser)
	s.handle("POST /login", s.login)

	s.handle("GET /users/{username}/cart", s.getCart)
	s.handle("POST /users/{username}/cart", s.addToCart)
	s.handle("DELETE /users/{username}/cart", s.clearCart)
	s.handle("PUT /users/{username}/cart/{orderID}", s.editCartLine)
	s.handle("DELETE /users/{username}/cart/{orderID}", s.deleteCartLine)
	s.handle("POST /users/{username}/checkout", s.checkout)
	s.handle("GET /users/{username}/orders", s.listUserOrders)
}

// handlerFunc is an HTTP handler that reports failures as errors.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(pattern string, h handlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("handler panicked", "method", r.Method, "path", r.URL.Path, "panic", v)
			if !rec.wrote {
				writeJSON(rec, http.StatusInternalServerError, errorBody{Error: apiError{
					Code: codeInternal, Message: "internal error",
				}})
			}
		}
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	}()
	s.mux.ServeHTTP(rec, r)
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wrote {
		r.status = status
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}

// NewHTTPServer wraps handler with the given address and timeouts.
func NewHTTPServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"transactional": s.repo.Transactional(),
	})
}
