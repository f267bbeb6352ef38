package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const itemColumns = `name, base_spirit, price, alcohol_cost, other_cost, gross_profit, gross_profit_margin, notes, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (Item, error) {
	var i Item
	err := row.Scan(
		&i.Name, &i.BaseSpirit, &i.Price, &i.AlcoholCost, &i.OtherCost,
		&i.GrossProfit, &i.GrossProfitMargin, &i.Notes, &i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) GetItem(ctx context.Context, name string) (Item, error) {
	row := q.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE name = $1`, name)
	return scanItem(row)
}

func (q *Queries) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := q.db.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type CreateItemParams struct {
	Name              string
	BaseSpirit        string
	Price             pgtype.Numeric
	AlcoholCost       pgtype.Numeric
	OtherCost         pgtype.Numeric
	GrossProfit       pgtype.Numeric
	GrossProfitMargin pgtype.Numeric
	Notes             pgtype.Text
}

func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (Item, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO items (name, base_spirit, price, alcohol_cost, other_cost,
			gross_profit, gross_profit_margin, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+itemColumns,
		arg.Name, arg.BaseSpirit, arg.Price, arg.AlcoholCost, arg.OtherCost,
		arg.GrossProfit, arg.GrossProfitMargin, arg.Notes,
	)
	return scanItem(row)
}

type UpdateItemParams struct {
	Name              string
	BaseSpirit        string
	Price             pgtype.Numeric
	AlcoholCost       pgtype.Numeric
	OtherCost         pgtype.Numeric
	GrossProfit       pgtype.Numeric
	GrossProfitMargin pgtype.Numeric
	Notes             pgtype.Text
}

func (q *Queries) UpdateItem(ctx context.Context, arg UpdateItemParams) (Item, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE items
		SET base_spirit = $2, price = $3, alcohol_cost = $4, other_cost = $5,
			gross_profit = $6, gross_profit_margin = $7, notes = $8, updated_at = now()
		WHERE name = $1
		RETURNING `+itemColumns,
		arg.Name, arg.BaseSpirit, arg.Price, arg.AlcoholCost, arg.OtherCost,
		arg.GrossProfit, arg.GrossProfitMargin, arg.Notes,
	)
	return scanItem(row)
}

// DeleteItem removes an item only while no unserved order references it.
// Served orders keep their own name and price snapshots, so they do not
// block deletion. Zero rows means not found or still referenced.
func (q *Queries) DeleteItem(ctx context.Context, name string) (string, error) {
	row := q.db.QueryRow(ctx, `
		DELETE FROM items
		WHERE name = $1
		  AND NOT EXISTS (
			SELECT 1 FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE oi.item_name = $1 AND o.status <> 'served'
		  )
		RETURNING name`,
		name,
	)
	var deleted string
	err := row.Scan(&deleted)
	return deleted, err
}

func (q *Queries) CountUnservedOrdersReferencingItem(ctx context.Context, name string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.item_name = $1 AND o.status <> 'served'`,
		name,
	).Scan(&n)
	return n, err
}

// --- Recipe lines ---

type AddItemMaterialParams struct {
	ItemName     string
	MaterialName string
	Quantity     pgtype.Numeric
	Position     int32
}

func (q *Queries) AddItemMaterial(ctx context.Context, arg AddItemMaterialParams) (ItemMaterial, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO item_materials (item_name, material_name, quantity, position)
		VALUES ($1, $2, $3, $4)
		RETURNING item_name, material_name, quantity, position`,
		arg.ItemName, arg.MaterialName, arg.Quantity, arg.Position,
	)
	var im ItemMaterial
	err := row.Scan(&im.ItemName, &im.MaterialName, &im.Quantity, &im.Position)
	return im, err
}

func (q *Queries) ListItemMaterials(ctx context.Context, itemName string) ([]ItemMaterial, error) {
	rows, err := q.db.Query(ctx, `
		SELECT item_name, material_name, quantity, position
		FROM item_materials
		WHERE item_name = $1
		ORDER BY position`,
		itemName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []ItemMaterial
	for rows.Next() {
		var im ItemMaterial
		if err := rows.Scan(&im.ItemName, &im.MaterialName, &im.Quantity, &im.Position); err != nil {
			return nil, err
		}
		lines = append(lines, im)
	}
	return lines, rows.Err()
}

func (q *Queries) DeleteItemMaterials(ctx context.Context, itemName string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM item_materials WHERE item_name = $1`, itemName)
	return err
}
