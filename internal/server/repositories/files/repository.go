package files

import (
	"context"

	"github.com/dropcrate/dropcrate/internal/server/models"
)

type Repository interface {
	CreateOrGet(ctx context.Context, file *models.File) (*models.File, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error)
	SearchByOwner(ctx context.Context, ownerID string, query string) ([]*models.File, error)
	GetByID(ctx context.Context, fileID string) (*models.File, error)
	UpdateTag(ctx context.Context, fileID, ownerID, tag string) (*models.File, error)
	Delete(ctx context.Context, fileID, ownerID string) error
}
