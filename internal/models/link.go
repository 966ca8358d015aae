package models

import "time"

type LinkRecord struct {
	ChatID     int64  `json:"chat_id"`
	PlayerName string `json:"player_name"`
}

type PlayerIdentity struct {
	Name string `json:"player_name"`
	UUID string `json:"player_uuid,omitempty"`
}

// PendingCode is a one-time code issued by the game server and waiting to be
// redeemed from Telegram. Code is always stored upper-cased.
type PendingCode struct {
	Code       string    `json:"code"`
	ChatIDHint *int64    `json:"chat_id_hint,omitempty"`
	PlayerName string    `json:"player_name"`
	PlayerUUID string    `json:"player_uuid,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (p *PendingCode) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

func (p *PendingCode) Player() PlayerIdentity {
	return PlayerIdentity{Name: p.PlayerName, UUID: p.PlayerUUID}
}
