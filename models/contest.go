// models/contest.go
package models

import "time"

// ContestWindowID is the primary key of the only contest_windows row.
const ContestWindowID uint = 1

// ContestState is derived from a ContestWindow and the current time; it is never stored.
type ContestState string

const (
	ContestNotStarted          ContestState = "not_started"
	ContestActiveOutsideWindow ContestState = "active_outside_window"
	ContestLive                ContestState = "live"
	ContestEnded               ContestState = "ended"
)

// ContestWindow is the singleton contest record. Version increments on every
// write and guards compare-and-swap updates.
type ContestWindow struct {
	ID      uint       `gorm:"primaryKey" json:"-"`
	StartAt *time.Time `json:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty"`
	Active  bool       `gorm:"not null;default:false" json:"active"`
	Version int64      `gorm:"not null;default:0" json:"version"`

	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsLive is true only when the window is active and now lies in [start, end].
func (w ContestWindow) IsLive(now time.Time) bool {
	if !w.Active || w.StartAt == nil || w.EndAt == nil {
		return false
	}
	return !now.Before(*w.StartAt) && !now.After(*w.EndAt)
}

func (w ContestWindow) State(now time.Time) ContestState {
	switch {
	case w.Active && w.IsLive(now):
		return ContestLive
	case w.Active:
		return ContestActiveOutsideWindow
	case w.StartAt == nil && w.EndAt == nil:
		return ContestNotStarted
	default:
		return ContestEnded
	}
}
