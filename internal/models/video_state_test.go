package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectedPositionWhilePlaying(t *testing.T) {
	v := VideoState{IsPlaying: true, PositionSeconds: 10, UpdatedAtEpochMs: 1000}
	assert.InDelta(t, 12.0, v.ProjectedPosition(3000), 1e-9)
}

func TestProjectedPositionWhilePaused(t *testing.T) {
	v := VideoState{IsPlaying: false, PositionSeconds: 10, UpdatedAtEpochMs: 1000}
	assert.InDelta(t, 10.0, v.ProjectedPosition(60000), 1e-9)
}

func TestProjectedPositionMonotonicWhilePlaying(t *testing.T) {
	v := VideoState{IsPlaying: true, PositionSeconds: 5, UpdatedAtEpochMs: 1000}
	prev := v.ProjectedPosition(1000)
	for now := int64(1100); now <= 10000; now += 100 {
		cur := v.ProjectedPosition(now)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestIdentityValidAndDisplayName(t *testing.T) {
	assert.False(t, Identity{}.Valid())
	assert.False(t, Identity{UserID: "u1"}.Valid())
	assert.False(t, Identity{Email: "a@b.c"}.Valid())
	assert.True(t, Identity{UserID: "u1", Email: "a@b.c"}.Valid())

	assert.Equal(t, "Ada", Identity{UserID: "u1", Email: "a@b.c", Name: "Ada"}.DisplayName())
	assert.Equal(t, "a@b.c", Identity{UserID: "u1", Email: "a@b.c"}.DisplayName())
}
