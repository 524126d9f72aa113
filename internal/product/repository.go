package product

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository is a thin wrapper over the product stored procedures; all
// validation and row mutation logic lives server side.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, limit, offset int) (Page, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT * FROM sp_read_get_product() LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return Page{}, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return Page{}, err
	}

	var total int64
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tbl_products WHERE status = TRUE
	`).Scan(&total)
	if err != nil {
		return Page{}, fmt.Errorf("count products: %w", err)
	}

	return Page{Results: products, TotalCount: total}, nil
}

func (r *Repository) Search(ctx context.Context, query string) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT * FROM sp_search_get_product($1)
	`, query)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *Repository) Create(ctx context.Context, input ProductInput) error {
	_, err := r.db.ExecContext(ctx, `
		SELECT sp_insert_add_product($1, $2, $3, $4, $5, $6, $7)
	`, input.Name, input.Price, input.Quantity, input.SupplierID, input.CategoryID, input.CreatedBy, nullable(input.ProductImage))
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *Repository) Update(ctx context.Context, id int64, input ProductInput) error {
	_, err := r.db.ExecContext(ctx, `
		SELECT sp_update_update_product($1, $2, $3, $4, $5, $6, $7)
	`, id, input.Name, input.Price, input.Quantity, input.UpdateReason, input.UpdatedBy, nullable(input.ProductImage))
	if err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `SELECT sp_delete_delete_product($1)`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}

	return nil
}

func scanProducts(rows *sql.Rows) ([]Product, error) {
	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		var image sql.NullString
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Price, &p.Quantity,
			&p.SupplierID, &p.SupplierName,
			&p.CategoryID, &p.CategoryName,
			&image, &p.CreatedBy, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.ProductImage = image.String
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
