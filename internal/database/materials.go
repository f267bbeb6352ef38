package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const materialColumns = `name, current_stock, min_stock, unit, category, cost_per_unit, last_updated`

func scanMaterial(row interface{ Scan(...any) error }) (Material, error) {
	var m Material
	err := row.Scan(&m.Name, &m.CurrentStock, &m.MinStock, &m.Unit, &m.Category, &m.CostPerUnit, &m.LastUpdated)
	return m, err
}

func (q *Queries) GetMaterial(ctx context.Context, name string) (Material, error) {
	row := q.db.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE name = $1`, name)
	return scanMaterial(row)
}

func (q *Queries) ListMaterials(ctx context.Context) ([]Material, error) {
	rows, err := q.db.Query(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

type CreateMaterialParams struct {
	Name         string
	CurrentStock pgtype.Numeric
	MinStock     pgtype.Numeric
	Unit         string
	Category     string
	CostPerUnit  pgtype.Numeric
}

func (q *Queries) CreateMaterial(ctx context.Context, arg CreateMaterialParams) (Material, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO materials (name, current_stock, min_stock, unit, category, cost_per_unit, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING `+materialColumns,
		arg.Name, arg.CurrentStock, arg.MinStock, arg.Unit, arg.Category, arg.CostPerUnit,
	)
	return scanMaterial(row)
}

// DeleteMaterial removes a material only while no menu item references it.
// The precondition lives in the statement so the check and the delete are
// one atomic step; zero rows means not found or still referenced.
func (q *Queries) DeleteMaterial(ctx context.Context, name string) (string, error) {
	row := q.db.QueryRow(ctx, `
		DELETE FROM materials
		WHERE name = $1
		  AND NOT EXISTS (SELECT 1 FROM item_materials WHERE material_name = $1)
		RETURNING name`,
		name,
	)
	var deleted string
	err := row.Scan(&deleted)
	return deleted, err
}

func (q *Queries) CountItemsReferencingMaterial(ctx context.Context, name string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM item_materials WHERE material_name = $1`, name,
	).Scan(&n)
	return n, err
}

type AdjustStockParams struct {
	Name   string
	Amount pgtype.Numeric
}

// AddStock increases current stock and stamps last_updated.
func (q *Queries) AddStock(ctx context.Context, arg AdjustStockParams) (Material, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE materials
		SET current_stock = current_stock + $2, last_updated = now()
		WHERE name = $1
		RETURNING `+materialColumns,
		arg.Name, arg.Amount,
	)
	return scanMaterial(row)
}

// DeductStock decreases current stock only if enough is available. The
// sufficiency check is part of the WHERE clause, so concurrent deductions
// serialize on the row and can never jointly overdraw; zero rows means
// the material is missing or short.
func (q *Queries) DeductStock(ctx context.Context, arg AdjustStockParams) (Material, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE materials
		SET current_stock = current_stock - $2, last_updated = now()
		WHERE name = $1 AND current_stock >= $2
		RETURNING `+materialColumns,
		arg.Name, arg.Amount,
	)
	return scanMaterial(row)
}

// SetStock overwrites current stock (administrative correction).
func (q *Queries) SetStock(ctx context.Context, arg AdjustStockParams) (Material, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE materials
		SET current_stock = $2, last_updated = now()
		WHERE name = $1
		RETURNING `+materialColumns,
		arg.Name, arg.Amount,
	)
	return scanMaterial(row)
}

type LowStockRow struct {
	Material Material
	Shortage pgtype.Numeric
}

func (q *Queries) ListLowStock(ctx context.Context) ([]LowStockRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+materialColumns+`, min_stock - current_stock AS shortage
		FROM materials
		WHERE current_stock < min_stock`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LowStockRow
	for rows.Next() {
		var r LowStockRow
		if err := rows.Scan(
			&r.Material.Name, &r.Material.CurrentStock, &r.Material.MinStock,
			&r.Material.Unit, &r.Material.Category, &r.Material.CostPerUnit,
			&r.Material.LastUpdated, &r.Shortage,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (q *Queries) CountLowStockMaterials(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM materials WHERE current_stock < min_stock`,
	).Scan(&n)
	return n, err
}

// --- Stock movements ---

type RecordStockMovementParams struct {
	MaterialName string
	Action       string
	Amount       pgtype.Numeric
	Reason       pgtype.Text
}

func (q *Queries) RecordStockMovement(ctx context.Context, arg RecordStockMovementParams) (StockMovement, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO stock_movements (material_name, action, amount, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, material_name, action, amount, reason, created_at`,
		arg.MaterialName, arg.Action, arg.Amount, arg.Reason,
	)
	var m StockMovement
	err := row.Scan(&m.ID, &m.MaterialName, &m.Action, &m.Amount, &m.Reason, &m.CreatedAt)
	return m, err
}

func (q *Queries) ListStockMovements(ctx context.Context, materialName string) ([]StockMovement, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, material_name, action, amount, reason, created_at
		FROM stock_movements
		WHERE material_name = $1
		ORDER BY created_at DESC, id DESC`,
		materialName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.MaterialName, &m.Action, &m.Amount, &m.Reason, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
