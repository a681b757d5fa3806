package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	RPCPath     = "/rpc"
	MetricsPath = "/metrics"
	HealthPath  = "/healthz"
)

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// NewRPCHandler serves svc as JSON-RPC 2.0.
func NewRPCHandler(svc *Service, log *zap.Logger) (http.Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	server := rpc.NewServer()
	server.RegisterCodec(json2.NewCustomCodecWithErrorMapper(rpc.DefaultEncoderSelector, mapError), "application/json")
	server.RegisterAfterFunc(func(i *rpc.RequestInfo) {
		if i.Error != nil {
			log.Debug("rpc failed", zap.String("method", i.Method), zap.Error(i.Error))
			return
		}
		log.Debug("rpc served", zap.String("method", i.Method))
	})
	return server, server.RegisterService(svc, ServiceName)
}

// NewHandler routes the RPC service, metrics and health check behind CORS
// and gzip.
func NewHandler(svc *Service, gatherer prometheus.Gatherer, allowedOrigins []string, log *zap.Logger) (http.Handler, error) {
	rpcHandler, err := NewRPCHandler(svc, log)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.Handle(RPCPath, rpcHandler).Methods(http.MethodPost)
	router.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	if gatherer != nil {
		router.Handle(MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(router)
	return gziphandler.GzipHandler(corsHandler), nil
}

// Server owns the HTTP listener of the daemon.
type Server struct {
	log             *zap.Logger
	srv             *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
}

const defaultShutdownTimeout = 5 * time.Second

func New(listener net.Listener, handler http.Handler, cfg HTTPConfig, log *zap.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:             log,
		listener:        listener,
		shutdownTimeout: cfg.ShutdownTimeout,
		srv: &http.Server{
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
	}
}

// Addr is the bound listen address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Dispatch serves until Shutdown. A clean shutdown returns nil.
func (s *Server) Dispatch() error {
	s.log.Info("serving", zap.Stringer("addr", s.listener.Addr()))
	if err := s.srv.Serve(s.listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	err := s.srv.Shutdown(ctx)
	cancel()

	// If shutdown times out, make sure the server is still shutdown.
	_ = s.srv.Close()
	return err
}
