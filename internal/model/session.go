package model

import "time"

// Session represents a bounded serving period as stored in the
// `sessions` table. Each session owns its orders and carries the
// token counter used for queue calling. The counter pair obeys
// CurrentToken <= LastTokenIssued at all times: a token can only be
// announced after it has been issued.
//
// Fields:
//  ID              – numeric primary key.
//  Label           – display name shown on dashboards (e.g. "Lunch").
//  LastTokenIssued – highest token handed out so far; starts at 0.
//  CurrentToken    – token currently being served; starts at 0.
//  LastCalledAt    – when a token was last announced (null before the
//                    first call).
//  CreatedAt       – timestamp of creation.
type Session struct {
	ID              uint64     `json:"id"`                // sessions.id
	Label           string     `json:"label"`             // sessions.label
	LastTokenIssued int64      `json:"last_token_issued"` // sessions.last_token_issued
	CurrentToken    int64      `json:"current_token"`     // sessions.current_token
	LastCalledAt    *time.Time `json:"last_called_at"`    // sessions.last_called_at (nullable)
	CreatedAt       time.Time  `json:"created_at"`        // sessions.created_at
}
