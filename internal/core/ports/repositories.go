package ports

import (
	"context"

	"github.com/midzapp/midz/internal/core/domain"
)

// UserDirectory reads users and their friend relationships. Read-only.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.User, error)
}

// BoardStore reads a user's boards and saved places. Read-only.
type BoardStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Board, error)
}

// BoardWriter persists boards; used by the importer only.
type BoardWriter interface {
	UpsertBoards(ctx context.Context, boards []domain.Board) error
}

// UserWriter persists directory entries; used by the importer only.
type UserWriter interface {
	UpsertUsers(ctx context.Context, users []domain.User) error
}
