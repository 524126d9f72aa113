package category

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Connection is one row of the category/product/supplier join view. Aliased
// field names keep the three name columns from clobbering each other in
// clients.
type Connection struct {
	CategoryName string `json:"c_name"`
	ProductName  string `json:"p_name"`
	SupplierName string `json:"s_name"`
}

type Page struct {
	Results    []Category `json:"results"`
	TotalCount int64      `json:"total_count"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, name, createdBy string) error {
	_, err := r.db.ExecContext(ctx, `SELECT sp_insert_add_category($1, $2)`, name, createdBy)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	return nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) (Page, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT * FROM sp_read_get_category() LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return Page{}, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedBy, &c.CreatedAt); err != nil {
			return Page{}, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate categories: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tbl_categories`).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count categories: %w", err)
	}

	return Page{Results: categories, TotalCount: total}, nil
}

// Connections joins categories, products, and suppliers by name.
func (r *Repository) Connections(ctx context.Context) ([]Connection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			c.name AS c_name,
			p.name AS p_name,
			s.name AS s_name
		FROM tbl_products p
		INNER JOIN tbl_categories c ON p.category_id = c.id
		INNER JOIN tbl_suppliers s ON p.supplier_id = s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query category connections: %w", err)
	}
	defer rows.Close()

	connections := make([]Connection, 0)
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.CategoryName, &c.ProductName, &c.SupplierName); err != nil {
			return nil, fmt.Errorf("scan category connection: %w", err)
		}
		connections = append(connections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category connections: %w", err)
	}

	return connections, nil
}

func (r *Repository) Update(ctx context.Context, id int64, name, updatedBy, updateReason string) error {
	_, err := r.db.ExecContext(ctx, `
		SELECT sp_update_update_category($1, $2, $3, $4)
	`, id, name, updatedBy, updateReason)
	if err != nil {
		return fmt.Errorf("update category %d: %w", id, err)
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `SELECT sp_delete_delete_category($1)`, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}

	return nil
}
