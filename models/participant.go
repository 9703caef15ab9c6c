// models/participant.go
package models

import "time"

// Participant is a contest entrant keyed by the chat platform's numeric user id.
// Wallet is a single slot; a new verification replaces it.
type Participant struct {
	ID       int64      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Handle   string     `gorm:"type:varchar(64);index" json:"handle"` // last seen wins
	Wallet   *string    `gorm:"type:varchar(64)" json:"wallet,omitempty"`
	Eligible bool       `gorm:"not null;default:false;index" json:"eligible"`
	JoinedAt *time.Time `gorm:"index" json:"joined_at,omitempty"` // nil = not joined

	Timestamps
}

// Score is the running point total, created alongside the participant.
type Score struct {
	ParticipantID int64 `gorm:"primaryKey;autoIncrement:false" json:"participant_id"`
	Points        int64 `gorm:"not null;default:0" json:"points"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
