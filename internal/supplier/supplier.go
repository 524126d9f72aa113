package supplier

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type Page struct {
	Results    []Supplier `json:"results"`
	TotalCount int64      `json:"total_count"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, name, contact, createdBy string) error {
	_, err := r.db.ExecContext(ctx, `
		SELECT sp_insert_add_supplier($1, $2, $3)
	`, name, contact, createdBy)
	if err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}

	return nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) (Page, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT * FROM sp_read_get_supplier() LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return Page{}, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]Supplier, 0)
	for rows.Next() {
		var s Supplier
		var contact sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &contact, &s.CreatedBy, &s.CreatedAt); err != nil {
			return Page{}, fmt.Errorf("scan supplier: %w", err)
		}
		s.Contact = contact.String
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate suppliers: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tbl_suppliers`).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count suppliers: %w", err)
	}

	return Page{Results: suppliers, TotalCount: total}, nil
}

func (r *Repository) Update(ctx context.Context, id int64, name, contact, updatedBy, updateReason string) error {
	_, err := r.db.ExecContext(ctx, `
		SELECT sp_update_update_supplier($1, $2, $3, $4, $5)
	`, id, name, contact, updatedBy, updateReason)
	if err != nil {
		return fmt.Errorf("update supplier %d: %w", id, err)
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `SELECT sp_delete_delete_supplier($1)`, id)
	if err != nil {
		return fmt.Errorf("delete supplier %d: %w", id, err)
	}

	return nil
}
