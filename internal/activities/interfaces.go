package activities

import (
	"time"

	"github.com/IoTReady/iotready-godesi/pkg/metadata"
	"github.com/IoTReady/iotready-godesi/pkg/models"
)

// Ledger is the append-only crate event store the engine writes to.
type Ledger interface {
	Append(a models.CrateActivity) error
	DeleteDrafts(crateID string) error
	CurrentState(crateID string) (*models.CrateActivity, error)
	ListBySession(sessionID string, status metadata.ActivityStatus) ([]models.CrateActivity, error)
	FindCompletedTransferOut(crateID, targetWarehouse string) (*models.CrateActivity, error)
	HasTransferOutSince(crateID, sourceWarehouse string, since time.Time) (bool, error)
	HasCompletedTransferIn(crateID, targetWarehouse string) (bool, error)
	PackageIDs(picklistID string) ([]string, error)
	ListByLinkedReference(refIDs []string) ([]models.CrateActivity, error)
	CompleteSessionDrafts(sessionID string) ([]models.CrateActivity, error)
}

// CrateStore maintains the per-crate reconciled snapshot and the
// availability flag.
type CrateStore interface {
	MaybeCreate(crateID string) error
	Get(crateID string) (*models.Crate, error)
	RecordProcurement(c models.Crate) error
	RecordTransferIn(crateID, warehouse string, weight, grnQuantity float64) error
	RecordPick(crateID string, remainingQuantity, remainingWeight float64, release bool) error
}

// RefData resolves master data referenced by crate events.
type RefData interface {
	GetItem(code string) (*models.Item, error)
	SupplierExists(id string) (bool, error)
	VehicleExists(licensePlate string) (bool, error)
	WarehouseExists(id string) (bool, error)
	PicklistExists(id string) (bool, error)
	GetWarehouse(id string) (*models.Warehouse, error)
	DestinationAllowed(sourceWarehouse, targetWarehouse string) (bool, error)
}

// SessionStore resolves and mutates device session context.
type SessionStore interface {
	Create(activity metadata.Activity, warehouse, userID string, meta map[string]any) string
	Get(id string) (models.SessionContext, bool)
	Merge(id string, partial map[string]any) bool
}
