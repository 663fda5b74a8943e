package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/premik/internal/model"
)

// CreateSubArea creates a new sub-area.
func CreateSubArea(ctx context.Context, db *sql.DB, name, room string) (*model.SubArea, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO sub_areas (name, room) VALUES (?, ?)`,
		name, room,
	)
	if err != nil {
		return nil, fmt.Errorf("creating sub-area: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting sub-area id: %w", err)
	}

	return GetSubArea(ctx, db, id)
}

// GetSubArea returns a sub-area by ID.
func GetSubArea(ctx context.Context, db *sql.DB, id int64) (*model.SubArea, error) {
	a := &model.SubArea{}
	var room sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, room, created_at, deleted_at
		 FROM sub_areas WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &room, &a.CreatedAt, &a.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting sub-area: %w", err)
	}
	a.Room = room.String
	return a, nil
}

// ListSubAreas returns all non-deleted sub-areas, optionally filtered by room.
func ListSubAreas(ctx context.Context, db *sql.DB, room string) ([]model.SubArea, error) {
	query := `SELECT id, name, room, created_at, deleted_at
	          FROM sub_areas WHERE deleted_at IS NULL`
	var args []any
	if room != "" {
		query += ` AND room = ?`
		args = append(args, room)
	}
	query += ` ORDER BY room, name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sub-areas: %w", err)
	}
	defer rows.Close()

	var areas []model.SubArea
	for rows.Next() {
		var a model.SubArea
		var room sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &room, &a.CreatedAt, &a.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning sub-area: %w", err)
		}
		a.Room = room.String
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// UpdateSubArea updates a sub-area's name and room.
func UpdateSubArea(ctx context.Context, db *sql.DB, id int64, name, room string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE sub_areas SET name = ?, room = ? WHERE id = ? AND deleted_at IS NULL`,
		name, room, id,
	)
	if err != nil {
		return fmt.Errorf("updating sub-area: %w", err)
	}
	return requireAffected(result, "sub-area")
}

// DeleteSubArea soft-deletes a sub-area. Fails if assets are still located there.
func DeleteSubArea(ctx context.Context, db *sql.DB, id int64) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assets WHERE sub_area_id = ? AND deleted_at IS NULL`, id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking sub-area assets: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("sub-area still holds %d assets: %w", count, ErrInUse)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE sub_areas SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting sub-area: %w", err)
	}
	return requireAffected(result, "sub-area")
}

func requireAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
