// models/leaderboard_snapshot.go
package models

import "time"

// LeaderboardSnapshot is a point-in-time copy of the ranking, taken by the snapshot worker.
type LeaderboardSnapshot struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ContestVersion int64     `gorm:"not null;index" json:"contest_version"`
	ContestState   string    `gorm:"type:varchar(32);not null" json:"contest_state"`
	EntryCount     int       `gorm:"not null" json:"entry_count"`
	Entries        string    `gorm:"type:text;not null" json:"entries"` // JSON array of Standing
	ArchiveKey     string    `gorm:"type:varchar(255)" json:"archive_key,omitempty"`
	TakenAt        time.Time `gorm:"not null;index" json:"taken_at"`
}

// Standing is one ranked row. Rank is 1-based.
type Standing struct {
	Rank          int       `json:"rank"`
	ParticipantID int64     `json:"participant_id"`
	Handle        string    `json:"handle"`
	Points        int64     `json:"points"`
	JoinedAt      time.Time `json:"joined_at"`
}

// MigrateModels lists every table owned by the service.
var MigrateModels = []any{
	&Participant{},
	&Score{},
	&ContestWindow{},
	&LeaderboardSnapshot{},
}
