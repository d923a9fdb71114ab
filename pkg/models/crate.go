package models

import "time"

// Crate is a physical, uniquely identified container of goods. Crates
// are created lazily on first procurement reference; the availability
// flag toggles false once procured and true again after a terminal
// release or full consumption. The last-known columns are snapshots
// maintained from completed activities. ProcurementTimestamp is nil
// until the crate's first procurement.
type Crate struct {
	ID                        string     `json:"crate_id" db:"id"`
	IsAvailableForProcurement bool       `json:"is_available_for_procurement" db:"is_available_for_procurement"`
	LastKnownItemCode         string     `json:"last_known_item_code" db:"last_known_item_code"`
	StockUOM                  string     `json:"stock_uom" db:"stock_uom"`
	LastKnownGRNQuantity      float64    `json:"last_known_grn_quantity" db:"last_known_grn_quantity"`
	LastKnownWeight           float64    `json:"last_known_weight" db:"last_known_weight"`
	LastKnownWarehouse        string     `json:"last_known_warehouse" db:"last_known_warehouse"`
	ProcurementTimestamp      *time.Time `json:"procurement_timestamp,omitempty" db:"procurement_timestamp"`
	AvailableAt               *time.Time `json:"available_at,omitempty" db:"available_at"`
}
