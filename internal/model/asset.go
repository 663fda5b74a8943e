package model

import "time"

// Asset is a single tracked piece of property.
type Asset struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Tag       string     `json:"tag,omitempty"`
	SubAreaID *int64     `json:"sub_area_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	SubAreaName string `json:"sub_area_name,omitempty"`
}
