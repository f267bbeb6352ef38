package database

import (
	"context"
)

const staffColumns = `id, name, role, hashed_password, created_at`

func scanStaff(row interface{ Scan(...any) error }) (Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.Name, &s.Role, &s.HashedPassword, &s.CreatedAt)
	return s, err
}

type CreateStaffParams struct {
	Name           string
	Role           string
	HashedPassword string
}

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO staff (id, name, role, hashed_password, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, now())
		RETURNING `+staffColumns,
		arg.Name, arg.Role, arg.HashedPassword,
	)
	return scanStaff(row)
}

func (q *Queries) GetStaffByName(ctx context.Context, name string) (Staff, error) {
	row := q.db.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE name = $1`, name)
	return scanStaff(row)
}

func (q *Queries) ListStaff(ctx context.Context) ([]Staff, error) {
	rows, err := q.db.Query(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}
