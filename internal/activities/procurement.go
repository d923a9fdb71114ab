package activities

import (
	"fmt"
	"time"

	custom_error "github.com/IoTReady/iotready-godesi/pkg/errors"
	"github.com/IoTReady/iotready-godesi/pkg/metadata"
	"github.com/IoTReady/iotready-godesi/pkg/models"

	"github.com/google/uuid"
)

// ProcurementHandler records supplier intake. The device may call the
// API repeatedly within one session to add crates, then finalize the
// drafts with an explicit submit.
type ProcurementHandler struct {
	v       *validator
	ledger  Ledger
	crates  CrateStore
	refdata RefData
}

func (h *ProcurementHandler) Requirements() models.ActivityRequirements {
	return models.ActivityRequirements{
		NeedWeight:            true,
		NeedsSubmit:           true,
		AllowMultipleAPICalls: true,
		AllowEditQuantity:     true,
		Label:                 true,
	}
}

func (h *ProcurementHandler) Process(sc models.SessionContext, ev models.CrateEvent) (models.CrateOutcome, error) {
	sourceWarehouse := sc.Warehouse
	supplier := ev.SupplierID
	if supplier == "" {
		supplier = sc.MetaString("supplier_id")
	}

	item, err := h.v.item(ev.ItemCode)
	if err != nil {
		return models.CrateOutcome{}, err
	}
	if err := h.v.supplier(supplier); err != nil {
		return models.CrateOutcome{}, err
	}
	if _, err := h.v.crateAvailable(ev.CrateID); err != nil {
		return models.CrateOutcome{}, err
	}
	if ev.Weight == nil {
		return models.CrateOutcome{}, custom_error.MissingInput("Weight is required")
	}
	weight := *ev.Weight
	if err := procurementTolerance(item, ev.Quantity, weight, ev.IsFinal); err != nil {
		return models.CrateOutcome{}, err
	}

	uom := metadata.NormalizeUOM(item.StockUOM)
	grnQuantity := ev.Quantity
	var moistureLoss float64
	if uom == metadata.UOMKg {
		// Weight based crates reconcile against the scale, not the count.
		grnQuantity = weight
		moistureLoss = item.MoistureLoss * weight / 100
	}

	// The label is rendered before anything is written so that a
	// missing template fails the event without touching the ledger or
	// the crate's availability.
	now := time.Now()
	label, err := h.renderLabel(sourceWarehouse, ev.CrateID, item, ev.Quantity, weight, now)
	if err != nil {
		return models.CrateOutcome{}, err
	}

	if err := h.ledger.DeleteDrafts(ev.CrateID); err != nil {
		return models.CrateOutcome{}, err
	}

	entry := models.CrateActivity{
		CrateID:              ev.CrateID,
		Activity:             metadata.ActivityProcurement,
		Status:               metadata.StatusDraft,
		SessionID:            sc.SessionID,
		ReferenceID:          uuid.NewString(),
		SourceWarehouse:      sourceWarehouse,
		SupplierID:           supplier,
		ItemCode:             item.Code,
		StockUOM:             uom,
		GRNQuantity:          grnQuantity,
		CrateWeight:          weight,
		MoistureLoss:         moistureLoss,
		LastKnownGRNQuantity: grnQuantity,
		LastKnownWeight:      weight,
		CreatedAt:            now,
	}
	if err := h.ledger.Append(entry); err != nil {
		return models.CrateOutcome{}, err
	}

	if err := h.crates.RecordProcurement(models.Crate{
		ID:                   ev.CrateID,
		LastKnownItemCode:    item.Code,
		StockUOM:             uom,
		LastKnownGRNQuantity: grnQuantity,
		LastKnownWeight:      weight,
		LastKnownWarehouse:   sourceWarehouse,
		ProcurementTimestamp: &now,
	}); err != nil {
		return models.CrateOutcome{}, err
	}

	return models.CrateOutcome{
		CrateID: ev.CrateID,
		Success: true,
		Message: "Event recorded successfully.",
		Label:   label,
	}, nil
}

func (h *ProcurementHandler) renderLabel(warehouseID, crateID string, item *models.Item, quantity, weight float64, now time.Time) (string, error) {
	warehouse, err := h.refdata.GetWarehouse(warehouseID)
	if err != nil {
		return "", err
	}
	if warehouse == nil || warehouse.CrateLabelTemplate == "" {
		return "", fmt.Errorf("please configure crate label template for warehouse %s", warehouseID)
	}

	return metadata.RenderLabel(warehouse.CrateLabelTemplate, metadata.LabelParams{
		CrateID:  crateID,
		ItemName: item.Name,
		Quantity: quantity,
		Weight:   weight,
		BatchID:  metadata.BatchID(warehouse.BatchPrefix, warehouse.ID, now),
		Now:      now,
	}), nil
}
