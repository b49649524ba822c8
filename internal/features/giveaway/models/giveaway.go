package models

import (
	"time"
)

// MinDuration is the floor enforced by the command and admin layers.
// The service itself only rejects non-positive durations.
const MinDuration = time.Minute

// Giveaway represents one prize draw in a Discord server.
type Giveaway struct {
	ID           string    `json:"id"`
	ServerID     string    `json:"server_id"`
	ChannelID    string    `json:"channel_id"`
	MessageID    string    `json:"message_id"`
	Prize        string    `json:"prize"`
	WinnersCount int       `json:"winners_count"`
	EndsAt       time.Time `json:"ends_at"`
	Ended        bool      `json:"ended"`
	Rigged       bool      `json:"rigged"`
	Participants []string  `json:"participants"`
	Winners      []string  `json:"winners"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasExpired reports whether the end time has passed.
func (g *Giveaway) HasExpired(now time.Time) bool {
	return !now.Before(g.EndsAt)
}

// AcceptsParticipants reports whether the giveaway is still open to joins.
func (g *Giveaway) AcceptsParticipants(now time.Time) bool {
	return !g.Ended && !g.HasExpired(now)
}

// HasParticipant reports whether the user already joined.
func (g *Giveaway) HasParticipant(userID string) bool {
	for _, p := range g.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// GiveawayCreate carries the fields needed to start a giveaway.
type GiveawayCreate struct {
	ServerID     string        `json:"server_id" binding:"required"`
	ChannelID    string        `json:"channel_id" binding:"required"`
	MessageID    string        `json:"message_id" binding:"required"`
	Prize        string        `json:"prize" binding:"required,min=1,max=200"`
	WinnersCount int           `json:"winners_count" binding:"required,min=1"`
	Duration     time.Duration `json:"duration" binding:"required"`
}

// GiveawayResult is returned by the ending and reroll operations.
type GiveawayResult struct {
	ID           string   `json:"id"`
	ServerID     string   `json:"server_id"`
	ChannelID    string   `json:"channel_id"`
	MessageID    string   `json:"message_id"`
	Prize        string   `json:"prize"`
	Winners      []string `json:"winners"`
	Participants []string `json:"participants"`
	Rigged       bool     `json:"rigged"`
}
