package model

import "github.com/shopspring/decimal"

// OrderConfirmation is what the backend returns for a placed order
type OrderConfirmation struct {
	OrderID FlexibleID      `json:"orderId"`
	Status  string          `json:"status"`
	Total   decimal.Decimal `json:"total"`
}
