package model

import (
	"fmt"
	"time"
)

// TransferSort is a field transfer listings can be ordered by.
type TransferSort string

// Sortable transfer fields.
const (
	SortByID            TransferSort = "id"
	SortByScheduledDate TransferSort = "scheduled_date"
	SortByStatus        TransferSort = "status"
	SortByCreatedAt     TransferSort = "created_at"
	SortByUpdatedAt     TransferSort = "updated_at"
)

// Column returns the SQL column for the sort field.
func (s TransferSort) Column() string {
	switch s {
	case SortByScheduledDate:
		return "r.scheduled_date"
	case SortByStatus:
		return "r.status"
	case SortByCreatedAt:
		return "r.created_at"
	case SortByUpdatedAt:
		return "r.updated_at"
	default:
		return "r.id"
	}
}

// ParseTransferSort parses a sort field; the empty string selects the default.
func ParseTransferSort(s string) (TransferSort, error) {
	switch TransferSort(s) {
	case "":
		return SortByCreatedAt, nil
	case SortByID, SortByScheduledDate, SortByStatus, SortByCreatedAt, SortByUpdatedAt:
		return TransferSort(s), nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// SortDirection is the ordering direction of a listing.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SQL returns the SQL keyword for the direction.
func (d SortDirection) SQL() string {
	if d == SortAsc {
		return "ASC"
	}
	return "DESC"
}

// ParseSortDirection parses a direction; the empty string selects descending.
func ParseSortDirection(s string) (SortDirection, error) {
	switch SortDirection(s) {
	case "":
		return SortDesc, nil
	case SortAsc, SortDesc:
		return SortDirection(s), nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// TransferFilter narrows a transfer listing. Zero values match everything.
type TransferFilter struct {
	Status          RecordStatus
	AssetID         int64
	SubAreaID       int64
	ScheduledAfter  *time.Time
	ScheduledBefore *time.Time
}

// Pagination defaults.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 200
)

// Page selects a window of a listing.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
