package receiver

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "logcore/internal/errors"
	"logcore/internal/middleware"
	"logcore/internal/parser"
	"logcore/internal/response"
	"logcore/internal/storage"
	"logcore/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// httpShutdownTimeout bounds how long Stop waits for in-flight requests
// to finish; past it, Stop returns the context error without waiting
// further.
const httpShutdownTimeout = 3 * time.Second

// Store is the subset of storage.Store the HTTP receiver needs. Unlike
// the datagram receivers, spec.md §4.5 has POST /api/logs "insert"
// directly (not "enqueue") so the response can report the assigned id in
// the same request/response cycle.
type Store interface {
	Insert(entry *types.LogEntry) (int64, error)
	GetLogCount() (int64, error)
}

var _ Store = (*storage.Store)(nil)
var _ types.Receiver = (*HTTPReceiver)(nil)

// HTTPReceiver serves the three JSON routes spec.md §4.5 names, built on
// a gin.Engine the way the teacher's router package is, with its own
// http.Server so Start/Stop own the listener lifecycle.
type HTTPReceiver struct {
	addr  string
	store Store
	clock func() time.Time

	mu     sync.Mutex
	server *http.Server
}

// NewHTTPReceiver builds a receiver bound to 0.0.0.0:port.
func NewHTTPReceiver(port uint16, store Store) *HTTPReceiver {
	return &HTTPReceiver{
		addr:  net.JoinHostPort("0.0.0.0", strconv.Itoa(int(port))),
		store: store,
		clock: time.Now,
	}
}

func (r *HTTPReceiver) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.Connection())

	engine.NoRoute(func(c *gin.Context) {
		response.Error(c, apperrors.ErrNotFound)
	})

	engine.POST("/api/logs", r.handleCreate)
	engine.GET("/api/logs", r.handleCount)
	engine.GET("/health", r.handleHealth)

	return engine
}

func (r *HTTPReceiver) handleCreate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}

	entry, err := parser.ParseJSON(body, r.clock())
	if err != nil {
		response.Error(c, apperrors.ErrInvalidJSON)
		return
	}

	id, err := r.store.Insert(entry)
	if err != nil {
		response.Error(c, apperrors.NewAPIError(apperrors.ErrStorageError, "Storage Error"))
		return
	}

	response.Created(c, id)
}

func (r *HTTPReceiver) handleCount(c *gin.Context) {
	count, err := r.store.GetLogCount()
	if err != nil {
		response.Error(c, apperrors.NewAPIError(apperrors.ErrStorageError, "Storage Error"))
		return
	}
	response.Count(c, count)
}

func (r *HTTPReceiver) handleHealth(c *gin.Context) {
	response.Health(c)
}

// Start begins serving HTTP in a background goroutine. A bind failure is
// returned synchronously to the orchestrator, which either disables this
// receiver or aborts startup, depending on whether it was attached as
// required.
func (r *HTTPReceiver) Start() error {
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return err
	}

	server := &http.Server{Handler: r.router()}
	r.mu.Lock()
	r.server = server
	r.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("http receiver: serve failed")
		}
	}()

	logrus.WithField("receiver", "http").WithField("addr", r.addr).Info("receiver started")
	return nil
}

// PollOnce is a liveness no-op: idiomatic Go serves HTTP via
// http.Server.Serve's own accept loop rather than a hand-rolled
// non-blocking accept, so there is nothing for the poll loop to drain
// here (documented as the Go-native resolution of spec.md's "accept one
// connection per poll" abstraction).
func (r *HTTPReceiver) PollOnce() error { return nil }

// Stop gracefully shuts the HTTP server down within httpShutdownTimeout.
func (r *HTTPReceiver) Stop() error {
	r.mu.Lock()
	server := r.server
	r.mu.Unlock()
	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}

func (r *HTTPReceiver) Name() string { return "http" }
