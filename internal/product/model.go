package product

import "time"

type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Quantity     int       `json:"quantity"`
	SupplierID   int64     `json:"supplier_id"`
	SupplierName string    `json:"supplier_name"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	ProductImage string    `json:"product_image"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

type ProductInput struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	SupplierID   int64   `json:"supplier_id"`
	CategoryID   int64   `json:"category_id"`
	CreatedBy    string  `json:"created_by"`
	UpdatedBy    string  `json:"updated_by"`
	UpdateReason string  `json:"update_reason"`
	ProductImage string  `json:"product_image"`
}

// Page wraps a list slice with the total row count for pagination UIs.
type Page struct {
	Results    []Product `json:"results"`
	TotalCount int64     `json:"total_count"`
}
