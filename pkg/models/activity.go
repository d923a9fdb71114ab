package models

import (
	"time"

	"github.com/IoTReady/iotready-godesi/pkg/metadata"
)

// CrateActivity is one immutable ledger entry. Entries only ever move
// Draft -> Completed; at most one Draft row exists per crate id at any
// time (prior drafts are deleted before a new draft is inserted).
type CrateActivity struct {
	ID                int64                   `json:"id" db:"id" goqu:"skipinsert"`
	CrateID           string                  `json:"crate_id" db:"crate_id"`
	Activity          metadata.Activity       `json:"activity" db:"activity"`
	Status            metadata.ActivityStatus `json:"status" db:"status"`
	SessionID         string                  `json:"session_id" db:"session_id"`
	ReferenceID       string                  `json:"reference_id" db:"reference_id"`
	LinkedReferenceID string                  `json:"linked_reference_id,omitempty" db:"linked_reference_id"`
	SourceWarehouse   string                  `json:"source_warehouse,omitempty" db:"source_warehouse"`
	TargetWarehouse   string                  `json:"target_warehouse,omitempty" db:"target_warehouse"`
	SupplierID        string                  `json:"supplier_id,omitempty" db:"supplier_id"`
	ItemCode          string                  `json:"item_code,omitempty" db:"item_code"`
	StockUOM          string                  `json:"stock_uom,omitempty" db:"stock_uom"`
	GRNQuantity       float64                 `json:"grn_quantity" db:"grn_quantity"`
	CrateWeight       float64                 `json:"crate_weight" db:"crate_weight"`
	PickedQuantity    float64                 `json:"picked_quantity,omitempty" db:"picked_quantity"`
	PickedWeight      float64                 `json:"picked_weight,omitempty" db:"picked_weight"`
	PackageID         string                  `json:"package_id,omitempty" db:"package_id"`
	PicklistID        string                  `json:"picklist_id,omitempty" db:"picklist_id"`
	Vehicle           string                  `json:"vehicle,omitempty" db:"vehicle"`
	MoistureLoss      float64                 `json:"moisture_loss,omitempty" db:"moisture_loss"`
	ActualLoss        float64                 `json:"actual_loss,omitempty" db:"actual_loss"`

	// Snapshot of the crate's reconciled state captured at write time;
	// the summary builder sums these as "expected" figures.
	LastKnownGRNQuantity float64 `json:"last_known_grn_quantity" db:"last_known_grn_quantity"`
	LastKnownWeight      float64 `json:"last_known_weight" db:"last_known_weight"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (a *CrateActivity) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   a.CrateID,
		ResourceType: "crate_activity",
	}
}
