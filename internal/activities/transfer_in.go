package activities

import (
	"time"

	"github.com/IoTReady/iotready-godesi/pkg/metadata"
	"github.com/IoTReady/iotready-godesi/pkg/models"

	"github.com/google/uuid"
)

// TransferInHandler receives a crate at the submitter's warehouse. The
// source warehouse is derived from the paired transfer out, never from
// device input.
type TransferInHandler struct {
	v       *validator
	ledger  Ledger
	crates  CrateStore
	refdata RefData
}

func (h *TransferInHandler) Requirements() models.ActivityRequirements {
	return models.ActivityRequirements{
		AllowMultipleAPICalls: true,
	}
}

func (h *TransferInHandler) Process(sc models.SessionContext, ev models.CrateEvent) (models.CrateOutcome, error) {
	targetWarehouse := sc.Warehouse

	crate, err := h.v.crateExists(ev.CrateID)
	if err != nil {
		return models.CrateOutcome{}, err
	}
	if err := h.v.crateInUse(crate); err != nil {
		return models.CrateOutcome{}, err
	}
	out, err := h.v.matchingTransferOut(ev.CrateID, targetWarehouse)
	if err != nil {
		return models.CrateOutcome{}, err
	}
	if err := h.v.noExistingTransferIn(ev.CrateID, targetWarehouse); err != nil {
		return models.CrateOutcome{}, err
	}

	// A crate is weighed again on arrival only when the dock has a
	// scale; the reconciliation check is skipped otherwise.
	weight := crate.LastKnownWeight
	grnQuantity := crate.LastKnownGRNQuantity
	var actualLoss float64
	if ev.Weight != nil {
		item, err := h.v.item(crate.LastKnownItemCode)
		if err != nil {
			return models.CrateOutcome{}, err
		}
		if err := transferInTolerance(item, crate.LastKnownWeight, *ev.Weight); err != nil {
			return models.CrateOutcome{}, err
		}
		weight = *ev.Weight
		actualLoss = crate.LastKnownWeight - weight
		if crate.StockUOM == metadata.UOMKg {
			grnQuantity = weight
		}
	}

	entry := models.CrateActivity{
		CrateID:              ev.CrateID,
		Activity:             metadata.ActivityTransferIn,
		Status:               metadata.StatusCompleted,
		SessionID:            sc.SessionID,
		ReferenceID:          uuid.NewString(),
		LinkedReferenceID:    out.ReferenceID,
		SourceWarehouse:      out.SourceWarehouse,
		TargetWarehouse:      targetWarehouse,
		Vehicle:              out.Vehicle,
		ItemCode:             crate.LastKnownItemCode,
		StockUOM:             crate.StockUOM,
		GRNQuantity:          grnQuantity,
		CrateWeight:          weight,
		ActualLoss:           actualLoss,
		LastKnownGRNQuantity: crate.LastKnownGRNQuantity,
		LastKnownWeight:      crate.LastKnownWeight,
		CreatedAt:            time.Now(),
	}
	if err := h.ledger.Append(entry); err != nil {
		return models.CrateOutcome{}, err
	}

	if err := h.crates.RecordTransferIn(ev.CrateID, targetWarehouse, weight, grnQuantity); err != nil {
		return models.CrateOutcome{}, err
	}

	return models.CrateOutcome{
		CrateID: ev.CrateID,
		Success: true,
		Message: "Event recorded successfully.",
	}, nil
}
