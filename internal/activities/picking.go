package activities

import (
	"time"

	custom_error "github.com/IoTReady/iotready-godesi/pkg/errors"
	"github.com/IoTReady/iotready-godesi/pkg/metadata"
	"github.com/IoTReady/iotready-godesi/pkg/models"

	"github.com/google/uuid"
)

// PickingHandler records outbound picks against a customer picklist.
// Picks are not revisable mid-session, so every successful event writes
// a Completed row immediately; there is no draft phase.
type PickingHandler struct {
	v      *validator
	ledger Ledger
	crates CrateStore
}

func (h *PickingHandler) Requirements() models.ActivityRequirements {
	return models.ActivityRequirements{
		NeedWeight:            true,
		AllowMultipleAPICalls: true,
	}
}

func (h *PickingHandler) Process(sc models.SessionContext, ev models.CrateEvent) (models.CrateOutcome, error) {
	warehouse := sc.Warehouse
	picklistID := ev.PicklistID
	if picklistID == "" {
		picklistID = sc.MetaString("picklist_id")
	}

	if err := h.v.picklist(picklistID); err != nil {
		return models.CrateOutcome{}, err
	}

	crate, err := h.v.crateExists(ev.CrateID)
	if err != nil {
		return models.CrateOutcome{}, err
	}
	if err := h.v.crateInUse(crate); err != nil {
		return models.CrateOutcome{}, err
	}
	if err := h.v.crateAtWarehouse(crate, warehouse); err != nil {
		return models.CrateOutcome{}, err
	}

	if ev.PackageID == "" {
		// Hand the device the ids already in play so the operator can
		// pick one or start a new sub-package.
		existing, idsErr := h.ledger.PackageIDs(picklistID)
		if idsErr != nil {
			return models.CrateOutcome{}, idsErr
		}
		return models.CrateOutcome{
			MissingPackageID: true,
			PackageIDs:       append([]string{metadata.PackageNew}, existing...),
		}, custom_error.MissingInput("Package id is required for a pick")
	}

	packageID, err := h.resolvePackageID(ev.PackageID, picklistID, crate.ID)
	if err != nil {
		return models.CrateOutcome{}, err
	}

	// Weight based crates pick by scale reading, counted crates by
	// quantity.
	var pickedQuantity, pickedWeight float64
	if crate.StockUOM == metadata.UOMKg {
		if ev.Weight == nil {
			return models.CrateOutcome{}, custom_error.MissingInput("Weight is required")
		}
		pickedWeight = *ev.Weight
		pickedQuantity = pickedWeight
	} else {
		if ev.Quantity <= 0 {
			return models.CrateOutcome{}, custom_error.MissingInput("Quantity is required")
		}
		pickedQuantity = ev.Quantity
	}

	if err := pickedWithinQuantity(crate, pickedQuantity); err != nil {
		return models.CrateOutcome{}, err
	}

	entry := models.CrateActivity{
		CrateID:              ev.CrateID,
		Activity:             metadata.ActivityPicking,
		Status:               metadata.StatusCompleted,
		SessionID:            sc.SessionID,
		ReferenceID:          uuid.NewString(),
		SourceWarehouse:      warehouse,
		ItemCode:             crate.LastKnownItemCode,
		StockUOM:             crate.StockUOM,
		PickedQuantity:       pickedQuantity,
		PickedWeight:         pickedWeight,
		PackageID:            packageID,
		PicklistID:           picklistID,
		LastKnownGRNQuantity: crate.LastKnownGRNQuantity,
		LastKnownWeight:      crate.LastKnownWeight,
		CreatedAt:            time.Now(),
	}
	if err := h.ledger.Append(entry); err != nil {
		return models.CrateOutcome{}, err
	}

	remainingQuantity := crate.LastKnownGRNQuantity - pickedQuantity
	remainingWeight := crate.LastKnownWeight - pickedWeight
	if remainingWeight < 0 {
		remainingWeight = 0
	}
	release := remainingQuantity <= 0 || ev.PackageID == metadata.PackageWhole
	if err := h.crates.RecordPick(ev.CrateID, remainingQuantity, remainingWeight, release); err != nil {
		return models.CrateOutcome{}, err
	}

	return models.CrateOutcome{
		CrateID: ev.CrateID,
		Success: true,
		Message: "Event recorded successfully.",
	}, nil
}

// resolvePackageID maps the device sentinels onto concrete ids: "New"
// allocates the next numeric sub-package for the picklist, "Whole"
// ships the crate as its own package.
func (h *PickingHandler) resolvePackageID(requested, picklistID, crateID string) (string, error) {
	switch requested {
	case metadata.PackageNew:
		existing, err := h.ledger.PackageIDs(picklistID)
		if err != nil {
			return "", err
		}
		return metadata.NextPackageID(existing), nil
	case metadata.PackageWhole:
		return crateID, nil
	default:
		return requested, nil
	}
}
