package model

import "time"

// SubArea is a location finer than a room, such as a shelf or a bay.
type SubArea struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Room      string     `json:"room,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
