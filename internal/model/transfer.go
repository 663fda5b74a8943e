package model

import "time"

// TransferRecord is a scheduled movement of one or more assets.
type TransferRecord struct {
	ID            int64          `json:"id"`
	Status        RecordStatus   `json:"status"`
	ScheduledDate *time.Time     `json:"scheduled_date,omitempty"`
	Remarks       string         `json:"remarks,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Items         []TransferItem `json:"items,omitempty"`
}

// TransferItem attaches one asset to one transfer record.
type TransferItem struct {
	ID            int64      `json:"id"`
	RecordID      int64      `json:"record_id"`
	AssetID       int64      `json:"asset_id"`
	Status        ItemStatus `json:"status"`
	FromSubAreaID *int64     `json:"from_sub_area_id,omitempty"`
	ToSubAreaID   *int64     `json:"to_sub_area_id,omitempty"`
	MovedAt       *time.Time `json:"moved_at,omitempty"`
	Remarks       string     `json:"remarks,omitempty"`

	// Joined fields (not always populated).
	AssetName string `json:"asset_name,omitempty"`
}

// ConflictKind classifies why a desired record status needs confirmation.
type ConflictKind string

// Conflict kinds.
const (
	ConflictOverdueWithoutPending ConflictKind = "overdue_without_pending"
	ConflictCompleteWithPending   ConflictKind = "complete_with_pending"
	ConflictCancelWithPending     ConflictKind = "cancel_with_pending"
	ConflictRevertWithTransferred ConflictKind = "revert_with_transferred"
)

// ConflictingAsset is one item listed in a conflict warning.
type ConflictingAsset struct {
	ItemID    int64      `json:"item_id"`
	AssetName string     `json:"asset_name"`
	Status    ItemStatus `json:"status"`
}

// Conflict describes a mismatch between a desired record status and the
// statuses of its items. It is never persisted.
type Conflict struct {
	Kind           ConflictKind       `json:"kind"`
	DesiredStatus  RecordStatus       `json:"desired_status"`
	ResolvedStatus RecordStatus       `json:"resolved_status"`
	Assets         []ConflictingAsset `json:"conflicting_assets"`
}
