package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/midzapp/midz/internal/core/domain"
)

// BoardRepo implements ports.BoardStore and ports.BoardWriter with pgx.
type BoardRepo struct {
	db *DB
}

// NewBoardRepo creates a new BoardRepo.
func NewBoardRepo(db *DB) *BoardRepo {
	return &BoardRepo{db: db}
}

// ListByOwner returns a user's boards with their places, boards by name and
// places in saved order.
func (r *BoardRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Board, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, owner_id, name, COALESCE(emoji, ''), COALESCE(color, '')
		FROM boards WHERE owner_id = $1
		ORDER BY name
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		boards []domain.Board
		ids    []string
	)
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Emoji, &b.Color); err != nil {
			return nil, err
		}
		boards = append(boards, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(boards) == 0 {
		return nil, nil
	}

	places, err := r.placesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range boards {
		boards[i].Places = places[boards[i].ID]
	}
	return boards, nil
}

func (r *BoardRepo) placesFor(ctx context.Context, boardIDs []string) (map[string][]domain.SavedPlace, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, board_id, name, COALESCE(address, ''), COALESCE(notes, '')
		FROM board_places WHERE board_id = ANY($1::uuid[])
		ORDER BY board_id, position
	`, boardIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.SavedPlace, len(boardIDs))
	for rows.Next() {
		var p domain.SavedPlace
		if err := rows.Scan(&p.ID, &p.BoardID, &p.Name, &p.Address, &p.Notes); err != nil {
			return nil, err
		}
		out[p.BoardID] = append(out[p.BoardID], p)
	}
	return out, rows.Err()
}

// UpsertBoards writes boards and replaces each board's places in one
// transaction using pgx.Batch.
func (r *BoardRepo) UpsertBoards(ctx context.Context, boards []domain.Board) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, b := range boards {
		batch.Queue(`
			INSERT INTO boards (id, owner_id, name, emoji, color)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, emoji = EXCLUDED.emoji, color = EXCLUDED.color
		`, b.ID, b.OwnerID, b.Name, b.Emoji, b.Color)
		batch.Queue(`DELETE FROM board_places WHERE board_id = $1`, b.ID)
		for pos, p := range b.Places {
			batch.Queue(`
				INSERT INTO board_places (board_id, name, address, notes, position)
				VALUES ($1, $2, $3, $4, $5)
			`, b.ID, p.Name, p.Address, p.Notes, pos)
		}
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}

	return tx.Commit(ctx)
}
