package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, table_number, orderer_name, total_price, status, notes, bartender, created_at, served_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.TableNumber, &o.OrdererName, &o.TotalPrice, &o.Status,
		&o.Notes, &o.Bartender, &o.CreatedAt, &o.ServedAt,
	)
	return o, err
}

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

type CreateOrderParams struct {
	TableNumber string
	OrdererName string
	TotalPrice  pgtype.Numeric
	Notes       pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (table_number, orderer_name, total_price, status, notes, created_at)
		VALUES ($1, $2, $3, 'pending', $4, now())
		RETURNING `+orderColumns,
		arg.TableNumber, arg.OrdererName, arg.TotalPrice, arg.Notes,
	)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID  int64
	ItemName string
	Quantity int32
	Price    pgtype.Numeric
	Position int32
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, item_name, quantity, price, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING order_id, item_name, quantity, price, position`,
		arg.OrderID, arg.ItemName, arg.Quantity, arg.Price, arg.Position,
	)
	var oi OrderItem
	err := row.Scan(&oi.OrderID, &oi.ItemName, &oi.Quantity, &oi.Price, &oi.Position)
	return oi, err
}

func (q *Queries) ListOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT order_id, item_name, quantity, price, position
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []OrderItem
	for rows.Next() {
		var oi OrderItem
		if err := rows.Scan(&oi.OrderID, &oi.ItemName, &oi.Quantity, &oi.Price, &oi.Position); err != nil {
			return nil, err
		}
		lines = append(lines, oi)
	}
	return lines, rows.Err()
}

type ListOrdersParams struct {
	Status      pgtype.Text
	TableNumber pgtype.Text
	CreatedFrom pgtype.Timestamptz
	CreatedTo   pgtype.Timestamptz
}

// ListOrders filters on whichever parameters are valid; NULL parameters
// match every row. Creation-time ascending.
func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR table_number = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
		ORDER BY created_at ASC, id ASC`,
		arg.Status, arg.TableNumber, arg.CreatedFrom, arg.CreatedTo,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListActiveOrders returns every order still in flight (pending or
// claimed), oldest first. Backs the bartender's work queue.
func (q *Queries) ListActiveOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status <> 'served'
		ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type ClaimOrderParams struct {
	ID        int64
	Bartender string
}

// ClaimOrder performs the pending→claimed transition as a compare-and-set:
// the expected status sits in the WHERE clause, so of any number of
// concurrent claims exactly one sees a row. Zero rows means the order is
// missing or already past pending.
func (q *Queries) ClaimOrder(ctx context.Context, arg ClaimOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'claimed', bartender = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING `+orderColumns,
		arg.ID, arg.Bartender,
	)
	return scanOrder(row)
}

type MarkOrderServedParams struct {
	ID       int64
	ServedAt time.Time
}

// MarkOrderServed performs the claimed→served transition, same
// compare-and-set shape as ClaimOrder.
func (q *Queries) MarkOrderServed(ctx context.Context, arg MarkOrderServedParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'served', served_at = $2
		WHERE id = $1 AND status = 'claimed'
		RETURNING `+orderColumns,
		arg.ID, arg.ServedAt,
	)
	return scanOrder(row)
}

type TodayOrderStatsParams struct {
	DayStart time.Time
	DayEnd   time.Time
}

func (q *Queries) SumRevenueBetween(ctx context.Context, arg TodayOrderStatsParams) (pgtype.Numeric, error) {
	var total pgtype.Numeric
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2`,
		arg.DayStart, arg.DayEnd,
	).Scan(&total)
	return total, err
}

func (q *Queries) CountPendingOrders(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE status = 'pending'`,
	).Scan(&n)
	return n, err
}
