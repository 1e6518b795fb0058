// Package services implements the coordination layer between the metadata
// store and the object store: upload coordination, registration, listing,
// search, rename, delete and share. Each operation is stateless; atomicity
// comes from the backing stores, not from anything held here.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropcrate/dropcrate/internal/common"
	"github.com/dropcrate/dropcrate/internal/server/config"
	"github.com/dropcrate/dropcrate/internal/server/models"
	"github.com/dropcrate/dropcrate/internal/server/objectstore"
	"github.com/dropcrate/dropcrate/internal/server/repositories/repomanager"
	"github.com/dropcrate/dropcrate/internal/server/shortener"
)

// MaxFileSize is the largest declared upload the coordinator accepts.
const MaxFileSize = 5 << 20 // 5 MiB

// allowedFileTypes is the MIME allow-list for uploads.
var allowedFileTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"application/pdf": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"video/mp4": {},
}

// UploadTicket is what the coordinator hands back: a presigned PUT URL and
// the storage key it signs for. No record exists yet; the name is reserved,
// nothing else.
type UploadTicket struct {
	UploadURL  string
	StorageKey string
}

// FileInfo is a metadata record paired with a freshly minted download URL.
type FileInfo struct {
	models.File
	DownloadURL string
}

// FileService coordinates the object store and the metadata store for all
// per-file operations. Store handles are injected; the service never
// constructs its own clients.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objectstore.Presigner
	shortener   shortener.Shortener
	config      *config.Config
}

func NewFileService(db *sql.DB, rm repomanager.RepositoryManager, store objectstore.Presigner, sh shortener.Shortener, cfg *config.Config) *FileService {
	return &FileService{
		db:          db,
		repomanager: rm,
		store:       store,
		shortener:   sh,
		config:      cfg,
	}
}

// boundCall derives a deadline-bounded context for one database or
// object-store call, so a hung dependency releases the request after
// StoreCallTimeout instead of pinning it for the life of the connection.
func (s *FileService) boundCall(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.StoreCallTimeout)
}

// makeStorageKey builds "{ownerID}/{32 hex chars}-{fileName}". The owner
// prefix is an organizational convention; ownership decisions always use the
// metadata record, never this string.
func makeStorageKey(ownerID, fileName string) (string, error) {
	r, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s-%s", ownerID, r, fileName), nil
}

// RequestUpload validates the proposed upload and returns a presigned PUT
// URL plus the storage key it covers. The metadata store is never touched:
// until the client PUTs the bytes and registers them, no record exists.
func (s *FileService) RequestUpload(ctx context.Context, ownerID, fileName, fileType string, fileSize int64) (*UploadTicket, error) {
	if fileName == "" || fileType == "" || fileSize <= 0 {
		return nil, fmt.Errorf("%w: missing fileName, fileType, or fileSize", common.ErrValidation)
	}
	if fileSize > MaxFileSize {
		return nil, fmt.Errorf("%w: file is too large, maximum size is %d MB", common.ErrValidation, MaxFileSize>>20)
	}
	if _, ok := allowedFileTypes[fileType]; !ok {
		return nil, fmt.Errorf("%w: invalid file type", common.ErrValidation)
	}

	key, err := makeStorageKey(ownerID, fileName)
	if err != nil {
		return nil, fmt.Errorf("generating storage key: %w", err)
	}

	cctx, cancel := s.boundCall(ctx)
	defer cancel()
	url, err := s.store.PresignPut(cctx, key, fileType, fileSize, s.config.UploadURLValidity)
	if err != nil {
		return nil, fmt.Errorf("presigning upload url: %w", err)
	}

	return &UploadTicket{UploadURL: url, StorageKey: key}, nil
}

// Register durably records a file after the client confirmed its PUT
// succeeded. Registration is idempotent per storage key: a retry returns
// the record created by the first call instead of minting a duplicate.
func (s *FileService) Register(ctx context.Context, ownerID, storageKey, originalFileName string, fileSize int64, tag string) (*models.File, error) {
	if storageKey == "" || originalFileName == "" {
		return nil, fmt.Errorf("%w: missing storageKey or originalFileName", common.ErrValidation)
	}
	// A registration may only claim a key that was coordinated for this
	// owner. This guards the input; later operations check the record.
	if !strings.HasPrefix(storageKey, ownerID+"/") {
		return nil, common.ErrNotFoundOrForbidden
	}
	if strings.TrimSpace(tag) == "" {
		tag = models.DefaultTag
	}

	file := &models.File{
		FileID:           uuid.NewString(),
		OwnerID:          ownerID,
		StorageKey:       storageKey,
		OriginalFileName: originalFileName,
		Tag:              tag,
		FileSize:         fileSize,
		UploadTimestamp:  time.Now().UTC(),
	}

	cctx, cancel := s.boundCall(ctx)
	defer cancel()
	created, err := s.repomanager.Files(s.db).CreateOrGet(cctx, file)
	if err != nil {
		if errors.Is(err, common.ErrNotFoundOrForbidden) {
			return nil, err
		}
		return nil, fmt.Errorf("recording metadata: %w", err)
	}
	return created, nil
}

// List returns every record owned by ownerID, each with a presigned GET URL.
// Ordering is unspecified.
func (s *FileService) List(ctx context.Context, ownerID string) ([]*FileInfo, error) {
	cctx, cancel := s.boundCall(ctx)
	items, err := s.repomanager.Files(s.db).ListByOwner(cctx, ownerID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return s.attachDownloadURLs(ctx, items)
}

// Search returns the owner's records whose tag or name contains query,
// case-insensitively. An empty or whitespace-only query yields an empty
// result set, not "everything".
func (s *FileService) Search(ctx context.Context, ownerID, query string) ([]*FileInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*FileInfo{}, nil
	}
	cctx, cancel := s.boundCall(ctx)
	items, err := s.repomanager.Files(s.db).SearchByOwner(cctx, ownerID, strings.ToLower(query))
	cancel()
	if err != nil {
		return nil, fmt.Errorf("searching files: %w", err)
	}
	return s.attachDownloadURLs(ctx, items)
}

func (s *FileService) attachDownloadURLs(ctx context.Context, items []*models.File) ([]*FileInfo, error) {
	result := make([]*FileInfo, 0, len(items))
	for _, f := range items {
		cctx, cancel := s.boundCall(ctx)
		url, err := s.store.PresignGet(cctx, f.StorageKey, f.OriginalFileName, s.config.DownloadURLValidity)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("presigning download url: %w", err)
		}
		result = append(result, &FileInfo{File: *f, DownloadURL: url})
	}
	return result, nil
}

// Rename sets a new tag on the caller's record. The ownership check and the
// mutation are one conditional statement in the store, so a concurrent
// delete or a foreign fileID cannot race past the check.
func (s *FileService) Rename(ctx context.Context, ownerID, fileID, newTag string) (*models.File, error) {
	if strings.TrimSpace(newTag) == "" {
		return nil, fmt.Errorf("%w: new tag is required", common.ErrValidation)
	}
	cctx, cancel := s.boundCall(ctx)
	defer cancel()
	updated, err := s.repomanager.Files(s.db).UpdateTag(cctx, fileID, ownerID, newTag)
	if err != nil {
		if errors.Is(err, common.ErrNotFoundOrForbidden) {
			return nil, err
		}
		return nil, fmt.Errorf("renaming file: %w", err)
	}
	return updated, nil
}

// getOwned loads the record and enforces ownership. Absent and foreign
// records are indistinguishable to the caller.
func (s *FileService) getOwned(ctx context.Context, ownerID, fileID string) (*models.File, error) {
	cctx, cancel := s.boundCall(ctx)
	defer cancel()
	f, err := s.repomanager.Files(s.db).GetByID(cctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("loading file: %w", err)
	}
	if f.OwnerID != ownerID {
		return nil, common.ErrNotFoundOrForbidden
	}
	return f, nil
}

// Delete removes the object first and the record second. If the object
// delete fails the record is left in place, so the file stays visible and
// the delete stays retryable; the opposite order would strand an orphan
// object no one can see or remove.
func (s *FileService) Delete(ctx context.Context, ownerID, fileID string) error {
	f, err := s.getOwned(ctx, ownerID, fileID)
	if err != nil {
		return err
	}

	octx, ocancel := s.boundCall(ctx)
	defer ocancel()
	if err := s.store.Delete(octx, f.StorageKey); err != nil {
		return fmt.Errorf("deleting object: %w", err)
	}

	rctx, rcancel := s.boundCall(ctx)
	defer rcancel()
	if err := s.repomanager.Files(s.db).Delete(rctx, fileID, ownerID); err != nil {
		if errors.Is(err, common.ErrNotFoundOrForbidden) {
			// Lost a race with another delete of the same record. The
			// object is gone either way.
			return nil
		}
		return fmt.Errorf("deleting metadata: %w", err)
	}
	return nil
}

// Share mints a long-lived presigned GET URL for the caller's file and runs
// it through the best-effort shortener. A shortener failure is never an
// error; the long URL is returned as is.
func (s *FileService) Share(ctx context.Context, ownerID, fileID string) (string, error) {
	f, err := s.getOwned(ctx, ownerID, fileID)
	if err != nil {
		return "", err
	}

	cctx, cancel := s.boundCall(ctx)
	defer cancel()
	longURL, err := s.store.PresignGet(cctx, f.StorageKey, f.OriginalFileName, s.config.ShareURLValidity)
	if err != nil {
		return "", fmt.Errorf("presigning share url: %w", err)
	}

	if s.shortener == nil {
		return longURL, nil
	}
	return s.shortener.Shorten(ctx, f.FileID, longURL), nil
}
