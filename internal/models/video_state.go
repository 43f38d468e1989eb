package models

// VideoState is the authoritative playback state of a room's shared video.
// UpdatedAtEpochMs is always stamped by the server on mutation; clients
// project the current position from it rather than trusting their own clocks.
type VideoState struct {
	URL              string  `json:"videoUrl"`
	IsPlaying        bool    `json:"isPlaying"`
	PositionSeconds  float64 `json:"positionSeconds"`
	UpdatedAtEpochMs int64   `json:"updatedAtEpochMs"`
}

// ProjectedPosition returns the playback offset a client should be at when
// the wall clock reads nowEpochMs: the last authoritative position plus
// elapsed time while playing.
func (v VideoState) ProjectedPosition(nowEpochMs int64) float64 {
	if !v.IsPlaying {
		return v.PositionSeconds
	}
	return v.PositionSeconds + float64(nowEpochMs-v.UpdatedAtEpochMs)/1000.0
}
