package rooms

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/umeet/watchparty/pkg/response"
)

// OccupancyCounter reports how many members are live in a room session.
type OccupancyCounter interface {
	Occupancy(roomID string) int
}

// Handler serves the read-only room endpoints. Room CRUD belongs to the
// external service; these exist for clients polling state outside the
// WebSocket stream.
type Handler struct {
	repo *Repository
}

// NewHandler creates a rooms handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// GetByID returns the persisted room record.
func (h *Handler) GetByID(c *gin.Context) {
	room, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "room not found")
			return
		}
		response.Internal(c, "failed to load room")
		return
	}
	response.OK(c, room)
}

// Occupancy returns the live member count for a room.
func (h *Handler) Occupancy(counter OccupancyCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.OK(c, gin.H{"count": counter.Occupancy(c.Param("id"))})
	}
}
