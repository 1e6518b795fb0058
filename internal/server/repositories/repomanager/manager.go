package repomanager

import (
	"context"
	"database/sql"

	"github.com/dropcrate/dropcrate/internal/dbx"
	"github.com/dropcrate/dropcrate/internal/server/repositories/files"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Files(db dbx.DBTX) files.Repository
}
