package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/midzapp/midz/internal/core/domain"
)

// UserRepo implements ports.UserDirectory with pgx.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, full_name, username, COALESCE(address, ''), friend_ids::text[], created_at`

// GetByID returns a user by UUID, or domain.ErrUserNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.FullName, &u.Username, &u.Address, &u.FriendIDs, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs returns the users with the given IDs ordered by name. Unknown IDs
// are skipped.
func (r *UserRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = ANY($1::uuid[])
		ORDER BY full_name
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Username, &u.Address, &u.FriendIDs, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpsertUsers inserts or updates users by ID in a single batch.
func (r *UserRepo) UpsertUsers(ctx context.Context, users []domain.User) error {
	batch := &pgx.Batch{}
	for _, u := range users {
		friends := u.FriendIDs
		if friends == nil {
			friends = []string{}
		}
		batch.Queue(`
			INSERT INTO users (id, full_name, username, address, friend_ids)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5::uuid[])
			ON CONFLICT (id) DO UPDATE
			SET full_name = EXCLUDED.full_name, username = EXCLUDED.username,
			    address = EXCLUDED.address, friend_ids = EXCLUDED.friend_ids
		`, u.ID, u.FullName, u.Username, u.Address, friends)
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert user %s: %w", users[i].ID, err)
		}
	}
	return nil
}
