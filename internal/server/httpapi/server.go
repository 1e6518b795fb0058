// Package httpapi exposes the JSON request/response surface of the server.
// Every /api route requires a verified bearer identity; cross-origin access
// is permitted from any origin.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropcrate/dropcrate/internal/logging"
	"github.com/dropcrate/dropcrate/internal/server/models"
	"github.com/dropcrate/dropcrate/internal/server/services"
)

// FileService is the slice of the service layer the transport needs.
type FileService interface {
	RequestUpload(ctx context.Context, ownerID, fileName, fileType string, fileSize int64) (*services.UploadTicket, error)
	Register(ctx context.Context, ownerID, storageKey, originalFileName string, fileSize int64, tag string) (*models.File, error)
	List(ctx context.Context, ownerID string) ([]*services.FileInfo, error)
	Search(ctx context.Context, ownerID, query string) ([]*services.FileInfo, error)
	Rename(ctx context.Context, ownerID, fileID, newTag string) (*models.File, error)
	Delete(ctx context.Context, ownerID, fileID string) error
	Share(ctx context.Context, ownerID, fileID string) (string, error)
}

type Server struct {
	address   string
	files     FileService
	db        *sql.DB
	logger    logging.Logger
	jwtSecret []byte
	metrics   *Metrics
}

func NewServer(address string, l logging.Logger, files FileService, db *sql.DB, secretKey string) *Server {
	return &Server{
		address:   address,
		files:     files,
		db:        db,
		logger:    l.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
		metrics:   InitMetrics(nil),
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/files/upload-url", s.authenticated("coordinate-upload", s.handleUploadURL))
	mux.Handle("POST /api/files", s.authenticated("register-metadata", s.handleRegister))
	mux.Handle("GET /api/files", s.authenticated("list-files", s.handleList))
	mux.Handle("GET /api/files/search", s.authenticated("search-files", s.handleSearch))
	mux.Handle("PATCH /api/files/{fileId}", s.authenticated("rename-file", s.handleRename))
	mux.Handle("DELETE /api/files/{fileId}", s.authenticated("delete-file", s.handleDelete))
	mux.Handle("POST /api/files/{fileId}/share", s.authenticated("share-file", s.handleShare))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return withCORS(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
