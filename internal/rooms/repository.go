package rooms

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/umeet/watchparty/internal/models"
)

// ErrNotFound means no active room record exists for the ID.
var ErrNotFound = errors.New("room not found")

// Repository reads persisted room records. Rooms are created and managed by
// the external CRUD service; this side only resolves the fields needed to
// seed a live session.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a room repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns an active room by ID. Deactivated rooms resolve as
// ErrNotFound so stale links cannot revive a deleted room.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	const q = `SELECT id, name, video_url, host_id, is_active, created_at, updated_at
		FROM rooms WHERE id = $1 AND is_active = TRUE`
	var room models.Room
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&room.ID, &room.Name, &room.VideoURL, &room.HostID, &room.IsActive, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}
