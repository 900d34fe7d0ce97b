package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/planetwars/pkg/api/handlers"
	"github.com/cbodonnell/planetwars/pkg/api/middleware"
	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/cbodonnell/planetwars/pkg/repositories"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port       int
	TLS        *TLSConfig
	Lobby      handlers.Lobby
	Keys       handlers.KeyStore
	Repository repositories.Repository
	Games      handlers.LobbyOptions
}

// NewRouter returns the routes of the lobby API.
func NewRouter(opts NewAPIServerOptions) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging)
	r.Use(middleware.CORS)

	r.HandleFunc("/health", handlers.HandleHealth()).Methods(http.MethodGet)
	r.HandleFunc("/lobby", handlers.HandleListLobbies(opts.Lobby)).Methods(http.MethodGet)
	r.HandleFunc("/lobby", handlers.HandleCreateLobby(opts.Lobby, opts.Keys, opts.Games)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/lobby/{id}", handlers.HandleGetLobby(opts.Lobby)).Methods(http.MethodGet)
	r.HandleFunc("/maps", handlers.HandleListMaps(opts.Games.MapsDir)).Methods(http.MethodGet)
	r.HandleFunc("/history", handlers.HandleListHistory(opts.Repository)).Methods(http.MethodGet)
	r.HandleFunc("/history/{id}", handlers.HandleGetHistory(opts.Repository)).Methods(http.MethodGet)
	r.HandleFunc("/replays/{file}", handlers.HandleGetReplay(opts.Games.ReplayDir)).Methods(http.MethodGet)

	return r
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
