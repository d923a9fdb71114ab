package crates

import "github.com/IoTReady/iotready-godesi/pkg/models"

// MergeActivities folds a crate's ledger rows, ordered oldest first,
// into a single composite record. Later fields override earlier ones
// field by field; empty strings and zero quantities never override a
// previously captured value. Callers are expected to pass only rows
// since the crate's most recent procurement boundary.
func MergeActivities(rows []models.CrateActivity) *models.CrateActivity {
	if len(rows) == 0 {
		return nil
	}

	merged := rows[0]
	for _, row := range rows[1:] {
		overlay(&merged, row)
	}
	return &merged
}

func overlay(dst *models.CrateActivity, src models.CrateActivity) {
	// Always taken from the newest row.
	dst.ID = src.ID
	dst.Activity = src.Activity
	dst.Status = src.Status
	dst.SessionID = src.SessionID
	dst.ReferenceID = src.ReferenceID
	dst.CreatedAt = src.CreatedAt

	overlayString(&dst.LinkedReferenceID, src.LinkedReferenceID)
	overlayString(&dst.SourceWarehouse, src.SourceWarehouse)
	overlayString(&dst.TargetWarehouse, src.TargetWarehouse)
	overlayString(&dst.SupplierID, src.SupplierID)
	overlayString(&dst.ItemCode, src.ItemCode)
	overlayString(&dst.StockUOM, src.StockUOM)
	overlayString(&dst.PackageID, src.PackageID)
	overlayString(&dst.PicklistID, src.PicklistID)
	overlayString(&dst.Vehicle, src.Vehicle)

	overlayFloat(&dst.GRNQuantity, src.GRNQuantity)
	overlayFloat(&dst.CrateWeight, src.CrateWeight)
	overlayFloat(&dst.PickedQuantity, src.PickedQuantity)
	overlayFloat(&dst.PickedWeight, src.PickedWeight)
	overlayFloat(&dst.MoistureLoss, src.MoistureLoss)
	overlayFloat(&dst.ActualLoss, src.ActualLoss)
	overlayFloat(&dst.LastKnownGRNQuantity, src.LastKnownGRNQuantity)
	overlayFloat(&dst.LastKnownWeight, src.LastKnownWeight)
}

func overlayString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func overlayFloat(dst *float64, src float64) {
	if src != 0 {
		*dst = src
	}
}
