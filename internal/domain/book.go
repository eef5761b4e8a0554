package domain

import "github.com/shopspring/decimal"

type Book struct {
	ExternalID        int64           `json:"external_id" yaml:"external_id" db:"external_id"`
	Title             string          `json:"title" yaml:"title" db:"title"`
	Price             decimal.Decimal `json:"price" yaml:"price" db:"price"`
	StockQuantity     int32           `json:"stock_quantity" yaml:"stock_quantity" db:"stock_quantity"`
	AvailableQuantity int32           `json:"available_quantity" yaml:"available_quantity" db:"available_quantity"`
}
