package crates

import (
	"fmt"
	"time"

	"github.com/IoTReady/iotready-godesi/internal/repository"
	custom_error "github.com/IoTReady/iotready-godesi/pkg/errors"
	"github.com/IoTReady/iotready-godesi/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

const cratesTable = "crates"

type CrateRepository struct {
	repository *repository.Repository
}

func NewCrateRepository(r *repository.Repository) *CrateRepository {
	return &CrateRepository{repository: r}
}

// MaybeCreate lazily registers a crate the first time a procurement
// references it. Existing crates are left untouched.
func (r *CrateRepository) MaybeCreate(crateID string) error {
	query := r.repository.GoquDBWrapper.Insert(cratesTable).
		Rows(goqu.Record{
			"id":                           crateID,
			"is_available_for_procurement": true,
		}).
		OnConflict(goqu.DoNothing())

	if _, err := query.Executor().Exec(); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return custom_error.WrapDBError("crate "+crateID, string(pqErr.Code))
		}
		return fmt.Errorf("failed to create crate %s: %w", crateID, err)
	}
	return nil
}

// Get returns the crate record, or nil when the crate is unknown.
func (r *CrateRepository) Get(crateID string) (*models.Crate, error) {
	var crate models.Crate
	query := r.repository.GoquDBWrapper.
		From(cratesTable).
		Where(goqu.Ex{"id": crateID})

	found, err := query.Executor().ScanStruct(&crate)
	if err != nil {
		return nil, fmt.Errorf("unable to select crate %s: %w", crateID, err)
	}
	if !found {
		return nil, nil
	}
	return &crate, nil
}

// RecordProcurement captures the reconciled intake snapshot and marks
// the crate as in use.
func (r *CrateRepository) RecordProcurement(c models.Crate) error {
	return r.update(c.ID, goqu.Record{
		"is_available_for_procurement": false,
		"last_known_item_code":         c.LastKnownItemCode,
		"stock_uom":                    c.StockUOM,
		"last_known_grn_quantity":      c.LastKnownGRNQuantity,
		"last_known_weight":            c.LastKnownWeight,
		"last_known_warehouse":         c.LastKnownWarehouse,
		"procurement_timestamp":        c.ProcurementTimestamp,
		"available_at":                 nil,
	})
}

// RecordTransferIn moves the crate to the receiving warehouse and
// refreshes its reconciled weight snapshot.
func (r *CrateRepository) RecordTransferIn(crateID, warehouse string, weight, grnQuantity float64) error {
	record := goqu.Record{"last_known_warehouse": warehouse}
	if weight > 0 {
		record["last_known_weight"] = weight
	}
	if grnQuantity > 0 {
		record["last_known_grn_quantity"] = grnQuantity
	}
	return r.update(crateID, record)
}

// RecordPick decrements the remaining reconciled quantity. A fully
// consumed crate is released back into the procurement pool.
func (r *CrateRepository) RecordPick(crateID string, remainingQuantity, remainingWeight float64, release bool) error {
	record := goqu.Record{
		"last_known_grn_quantity": remainingQuantity,
		"last_known_weight":       remainingWeight,
	}
	if release {
		record["is_available_for_procurement"] = true
		record["available_at"] = time.Now()
	}
	return r.update(crateID, record)
}

func (r *CrateRepository) update(crateID string, record goqu.Record) error {
	result, err := r.repository.GoquDBWrapper.
		Update(cratesTable).
		Set(record).
		Where(goqu.Ex{"id": crateID}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to update crate %s: %w", crateID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no crate found with id: %s", crateID)
	}
	return nil
}
