package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/premik/internal/model"
)

const assetColumns = `a.id, a.name, a.tag, a.sub_area_id, a.created_at, a.updated_at, a.deleted_at,
        COALESCE(s.name, '') AS sub_area_name`

// CreateAsset creates a new asset, optionally placed in a sub-area.
func CreateAsset(ctx context.Context, db *sql.DB, name, tag string, subAreaID *int64) (*model.Asset, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO assets (name, tag, sub_area_id) VALUES (?, ?, ?)`,
		name, tag, subAreaID,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("asset tag %q: %w", tag, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("creating asset: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting asset id: %w", err)
	}

	return GetAsset(ctx, db, id)
}

// GetAsset returns an asset by ID, including soft-deleted ones.
func GetAsset(ctx context.Context, db *sql.DB, id int64) (*model.Asset, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+assetColumns+`
		 FROM assets a
		 LEFT JOIN sub_areas s ON s.id = a.sub_area_id
		 WHERE a.id = ?`, id,
	)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return a, nil
}

// ListAssets returns all non-deleted assets, optionally filtered by sub-area.
func ListAssets(ctx context.Context, db *sql.DB, subAreaID int64) ([]model.Asset, error) {
	query := `SELECT ` + assetColumns + `
	          FROM assets a
	          LEFT JOIN sub_areas s ON s.id = a.sub_area_id
	          WHERE a.deleted_at IS NULL`
	var args []any
	if subAreaID > 0 {
		query += ` AND a.sub_area_id = ?`
		args = append(args, subAreaID)
	}
	query += ` ORDER BY a.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

// UpdateAsset updates an asset's metadata and recorded location.
func UpdateAsset(ctx context.Context, db *sql.DB, id int64, name, tag string, subAreaID *int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE assets SET name = ?, tag = ?, sub_area_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, tag, subAreaID, id,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("asset tag %q: %w", tag, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	return requireAffected(result, "asset")
}

// DeleteAsset soft-deletes an asset. Fails while the asset is still pending
// in a transfer that is not finished.
func DeleteAsset(ctx context.Context, db *sql.DB, id int64) error {
	var open int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfer_items ti
		 JOIN transfer_records r ON r.id = ti.record_id
		 WHERE ti.asset_id = ? AND ti.status = ? AND r.status NOT IN (?, ?)`,
		id, string(model.ItemPending), string(model.RecordCompleted), string(model.RecordCancelled),
	).Scan(&open)
	if err != nil {
		return fmt.Errorf("checking open transfers: %w", err)
	}
	if open > 0 {
		return fmt.Errorf("asset is pending in %d open transfers: %w", open, ErrInUse)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE assets SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	return requireAffected(result, "asset")
}

// GetAssetHistory returns every transfer item the asset appears in, newest first.
func GetAssetHistory(ctx context.Context, db *sql.DB, assetID int64) ([]model.TransferItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM transfer_items ti
		 JOIN assets a ON a.id = ti.asset_id
		 WHERE ti.asset_id = ?
		 ORDER BY ti.record_id DESC, ti.id DESC`, assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting asset history: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (*model.Asset, error) {
	a := &model.Asset{}
	var tag sql.NullString
	if err := row.Scan(&a.ID, &a.Name, &tag, &a.SubAreaID, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt, &a.SubAreaName); err != nil {
		return nil, err
	}
	a.Tag = tag.String
	return a, nil
}
