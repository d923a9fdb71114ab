package activities

import (
	"time"

	"github.com/IoTReady/iotready-godesi/pkg/metadata"
	"github.com/IoTReady/iotready-godesi/pkg/models"

	"github.com/google/uuid"
)

// TransferOutHandler stages a crate for dispatch to a destination
// warehouse. The crate stays at the source until the paired transfer
// in completes.
type TransferOutHandler struct {
	v      *validator
	ledger Ledger
	crates CrateStore
}

func (h *TransferOutHandler) Requirements() models.ActivityRequirements {
	return models.ActivityRequirements{
		NeedsSubmit: true,
	}
}

func (h *TransferOutHandler) Process(sc models.SessionContext, ev models.CrateEvent) (models.CrateOutcome, error) {
	sourceWarehouse := sc.Warehouse
	targetWarehouse := ev.TargetWarehouse
	if targetWarehouse == "" {
		targetWarehouse = sc.MetaString("target_warehouse")
	}
	vehicle := ev.Vehicle
	if vehicle == "" {
		vehicle = sc.MetaString("vehicle")
	}

	crate, err := h.v.crateExists(ev.CrateID)
	if err != nil {
		return models.CrateOutcome{}, err
	}
	if err := h.v.crateInUse(crate); err != nil {
		return models.CrateOutcome{}, err
	}
	if err := h.v.crateAtWarehouse(crate, sourceWarehouse); err != nil {
		return models.CrateOutcome{}, err
	}
	if err := h.v.destination(sourceWarehouse, targetWarehouse); err != nil {
		return models.CrateOutcome{}, err
	}
	if err := h.v.vehicle(vehicle); err != nil {
		return models.CrateOutcome{}, err
	}
	if err := h.v.noExistingTransferOut(crate, sourceWarehouse); err != nil {
		return models.CrateOutcome{}, err
	}

	if err := h.ledger.DeleteDrafts(ev.CrateID); err != nil {
		return models.CrateOutcome{}, err
	}

	entry := models.CrateActivity{
		CrateID:              ev.CrateID,
		Activity:             metadata.ActivityTransferOut,
		Status:               metadata.StatusDraft,
		SessionID:            sc.SessionID,
		ReferenceID:          uuid.NewString(),
		SourceWarehouse:      sourceWarehouse,
		TargetWarehouse:      targetWarehouse,
		Vehicle:              vehicle,
		ItemCode:             crate.LastKnownItemCode,
		StockUOM:             crate.StockUOM,
		GRNQuantity:          crate.LastKnownGRNQuantity,
		CrateWeight:          crate.LastKnownWeight,
		LastKnownGRNQuantity: crate.LastKnownGRNQuantity,
		LastKnownWeight:      crate.LastKnownWeight,
		CreatedAt:            time.Now(),
	}
	if err := h.ledger.Append(entry); err != nil {
		return models.CrateOutcome{}, err
	}

	return models.CrateOutcome{
		CrateID: ev.CrateID,
		Success: true,
		Message: "Event recorded successfully.",
	}, nil
}
