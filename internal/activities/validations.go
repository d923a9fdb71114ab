package activities

import (
	"time"

	custom_error "github.com/IoTReady/iotready-godesi/pkg/errors"
	"github.com/IoTReady/iotready-godesi/pkg/models"
)

// validator bundles the read-side dependencies the precondition checks
// run against. Every check is a pure predicate over ledger, crate and
// reference data; a violation surfaces as a classified CrateFailure.
type validator struct {
	ledger  Ledger
	crates  CrateStore
	refdata RefData
}

func (v *validator) item(code string) (*models.Item, error) {
	if code == "" {
		return nil, custom_error.MissingInput("Item code is required")
	}
	item, err := v.refdata.GetItem(code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, custom_error.NotFound("Item %s does not exist", code)
	}
	return item, nil
}

func (v *validator) supplier(id string) error {
	if id == "" {
		return custom_error.MissingInput("Supplier is required")
	}
	exists, err := v.refdata.SupplierExists(id)
	if err != nil {
		return err
	}
	if !exists {
		return custom_error.NotFound("Supplier %s does not exist", id)
	}
	return nil
}

func (v *validator) vehicle(licensePlate string) error {
	if licensePlate == "" {
		return custom_error.MissingInput("Vehicle is required")
	}
	exists, err := v.refdata.VehicleExists(licensePlate)
	if err != nil {
		return err
	}
	if !exists {
		return custom_error.NotFound("Vehicle %s does not exist", licensePlate)
	}
	return nil
}

func (v *validator) crateExists(crateID string) (*models.Crate, error) {
	crate, err := v.crates.Get(crateID)
	if err != nil {
		return nil, err
	}
	if crate == nil {
		return nil, custom_error.NotFound("Crate %s does not exist", crateID)
	}
	return crate, nil
}

// crateAvailable checks that a crate can begin a procurement flow,
// lazily registering unknown crates first.
func (v *validator) crateAvailable(crateID string) (*models.Crate, error) {
	if err := v.crates.MaybeCreate(crateID); err != nil {
		return nil, err
	}
	crate, err := v.crateExists(crateID)
	if err != nil {
		return nil, err
	}
	if !crate.IsAvailableForProcurement {
		return nil, custom_error.StateConflict("Crate in use.")
	}
	if crate.AvailableAt != nil && time.Now().Before(*crate.AvailableAt) {
		return nil, custom_error.StateConflict("Crate not released yet.")
	}
	return crate, nil
}

// crateInUse checks that a crate was procured and not yet released,
// the precondition for every consuming flow.
func (v *validator) crateInUse(crate *models.Crate) error {
	if crate.IsAvailableForProcurement {
		return custom_error.StateConflict("Crate not procured or GRN not completed.")
	}
	return nil
}

func (v *validator) crateAtWarehouse(crate *models.Crate, warehouse string) error {
	if crate.IsAvailableForProcurement || crate.LastKnownWarehouse == warehouse {
		return nil
	}
	return custom_error.StateConflict("Crate %s not at %s", crate.ID, warehouse)
}

func (v *validator) destination(sourceWarehouse, targetWarehouse string) error {
	if targetWarehouse == "" {
		return custom_error.MissingInput("Target warehouse is required")
	}
	exists, err := v.refdata.WarehouseExists(targetWarehouse)
	if err != nil {
		return err
	}
	if !exists {
		return custom_error.NotFound("Target %s does not exist", targetWarehouse)
	}
	allowed, err := v.refdata.DestinationAllowed(sourceWarehouse, targetWarehouse)
	if err != nil {
		return err
	}
	if !allowed {
		return custom_error.StateConflict("Transfers not allowed to %s from %s.", targetWarehouse, sourceWarehouse)
	}
	return nil
}

func (v *validator) noExistingTransferOut(crate *models.Crate, sourceWarehouse string) error {
	var since time.Time
	if crate.ProcurementTimestamp != nil {
		since = *crate.ProcurementTimestamp
	}
	exists, err := v.ledger.HasTransferOutSince(crate.ID, sourceWarehouse, since)
	if err != nil {
		return err
	}
	if exists {
		return custom_error.StateConflict("Already added to a transfer out.")
	}
	return nil
}

// matchingTransferOut resolves the completed outbound transfer an
// incoming crate must pair with.
func (v *validator) matchingTransferOut(crateID, targetWarehouse string) (*models.CrateActivity, error) {
	out, err := v.ledger.FindCompletedTransferOut(crateID, targetWarehouse)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, custom_error.NotFound("No matching Transfer Out found.")
	}
	return out, nil
}

func (v *validator) noExistingTransferIn(crateID, targetWarehouse string) error {
	exists, err := v.ledger.HasCompletedTransferIn(crateID, targetWarehouse)
	if err != nil {
		return err
	}
	if exists {
		return custom_error.StateConflict("Already Transferred In.")
	}
	return nil
}

func (v *validator) picklist(id string) error {
	if id == "" {
		return custom_error.MissingInput("Picklist is required")
	}
	exists, err := v.refdata.PicklistExists(id)
	if err != nil {
		return err
	}
	if !exists {
		return custom_error.NotFound("Picklist %s does not exist", id)
	}
	return nil
}

// procurementTolerance checks the captured weight against the band
// around the expected packaging weight for the given quantity. The
// lower bound may be waived by the operator's force-finalize override;
// the upper bound never is.
func procurementTolerance(item *models.Item, quantity, weight float64, isFinal bool) error {
	expected := item.SecondaryBoxWeight*quantity + item.TertiaryPackagingWeight
	if expected <= 0 {
		// Items without packaging constants are not reconciled.
		return nil
	}
	lower, upper := toleranceBand(expected, item.LowerTolerance, item.UpperTolerance)
	if weight < lower && !isFinal {
		return custom_error.ToleranceViolation(custom_error.ToleranceUnder, "Actual weight below expected weight")
	}
	if weight > upper {
		return custom_error.ToleranceViolation(custom_error.ToleranceOver, "Actual weight above expected weight")
	}
	return nil
}

// transferInTolerance reconciles the observed weight against the
// crate's last known weight, using the narrower of the item's two
// tolerance margins on both sides.
func transferInTolerance(item *models.Item, lastKnownWeight, weight float64) error {
	tolerance := item.LowerTolerance
	if item.UpperTolerance < tolerance {
		tolerance = item.UpperTolerance
	}
	lower, upper := toleranceBand(lastKnownWeight, tolerance, tolerance)
	if weight < lower {
		return custom_error.ToleranceViolation(custom_error.ToleranceUnder, "Actual weight below expected weight")
	}
	if weight > upper {
		return custom_error.ToleranceViolation(custom_error.ToleranceOver, "Actual weight above expected weight")
	}
	return nil
}

func toleranceBand(expected, lowerPct, upperPct float64) (lower, upper float64) {
	return expected * (1 - lowerPct/100), expected * (1 + upperPct/100)
}

func pickedWithinQuantity(crate *models.Crate, picked float64) error {
	if picked > crate.LastKnownGRNQuantity {
		return custom_error.StateConflict("Picked quantity exceeds crate quantity.")
	}
	return nil
}
