package crates

import (
	"fmt"
	"time"

	"github.com/IoTReady/iotready-godesi/internal/repository"
	custom_error "github.com/IoTReady/iotready-godesi/pkg/errors"
	"github.com/IoTReady/iotready-godesi/pkg/metadata"
	"github.com/IoTReady/iotready-godesi/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

const activitiesTable = "crate_activities"

// ActivityRepository is the append-only crate event ledger. Append is
// the only mutator besides the draft-replacement delete; rows are never
// updated after insert except for the Draft -> Completed transition.
type ActivityRepository struct {
	repository *repository.Repository
}

func NewActivityRepository(r *repository.Repository) *ActivityRepository {
	return &ActivityRepository{repository: r}
}

func (r *ActivityRepository) Append(a models.CrateActivity) error {
	query := r.repository.GoquDBWrapper.Insert(activitiesTable).
		Rows(goqu.Record{
			"crate_id":                a.CrateID,
			"activity":                string(a.Activity),
			"status":                  string(a.Status),
			"session_id":              a.SessionID,
			"reference_id":            a.ReferenceID,
			"linked_reference_id":     a.LinkedReferenceID,
			"source_warehouse":        a.SourceWarehouse,
			"target_warehouse":        a.TargetWarehouse,
			"supplier_id":             a.SupplierID,
			"item_code":               a.ItemCode,
			"stock_uom":               a.StockUOM,
			"grn_quantity":            a.GRNQuantity,
			"crate_weight":            a.CrateWeight,
			"picked_quantity":         a.PickedQuantity,
			"picked_weight":           a.PickedWeight,
			"package_id":              a.PackageID,
			"picklist_id":             a.PicklistID,
			"vehicle":                 a.Vehicle,
			"moisture_loss":           a.MoistureLoss,
			"actual_loss":             a.ActualLoss,
			"last_known_grn_quantity": a.LastKnownGRNQuantity,
			"last_known_weight":       a.LastKnownWeight,
			"created_at":              a.CreatedAt,
		})

	if _, err := query.Executor().Exec(); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return custom_error.WrapDBError("crate activity for "+a.CrateID, string(pqErr.Code))
		}
		return fmt.Errorf("failed to insert crate activity: %w", err)
	}
	return nil
}

// DeleteDrafts removes every Draft row for a crate. It runs before a
// new draft insert so that at most one Draft per crate id ever exists.
func (r *ActivityRepository) DeleteDrafts(crateID string) error {
	_, err := r.repository.GoquDBWrapper.
		Delete(activitiesTable).
		Where(goqu.Ex{"crate_id": crateID, "status": string(metadata.StatusDraft)}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete draft activities for crate %s: %w", crateID, err)
	}
	return nil
}

// ListForCrate returns the crate's rows since its most recent
// procurement boundary, oldest first. Everything before the boundary
// belongs to a previous life of the crate.
func (r *ActivityRepository) ListForCrate(crateID string) ([]models.CrateActivity, error) {
	boundary := r.repository.GoquDBWrapper.
		From(activitiesTable).
		Select(goqu.MAX("created_at")).
		Where(goqu.Ex{
			"crate_id": crateID,
			"activity": string(metadata.ActivityProcurement),
		})

	query := r.repository.GoquDBWrapper.
		From(activitiesTable).
		Where(
			goqu.Ex{"crate_id": crateID},
			goqu.C("created_at").Gte(boundary),
		).
		Order(goqu.C("created_at").Asc())

	var rows []models.CrateActivity
	if err := query.Executor().ScanStructs(&rows); err != nil {
		return nil, fmt.Errorf("unable to select activities for crate %s: %w", crateID, err)
	}
	return rows, nil
}

// CurrentState merges the crate's ledger rows into one composite view,
// or nil when the crate has no recorded activity.
func (r *ActivityRepository) CurrentState(crateID string) (*models.CrateActivity, error) {
	rows, err := r.ListForCrate(crateID)
	if err != nil {
		return nil, err
	}
	return MergeActivities(rows), nil
}

// ListBySession returns the session's rows oldest first. An empty
// status matches both Draft and Completed rows.
func (r *ActivityRepository) ListBySession(sessionID string, status metadata.ActivityStatus) ([]models.CrateActivity, error) {
	conditions := goqu.Ex{"session_id": sessionID}
	if status != "" {
		conditions["status"] = string(status)
	}

	query := r.repository.GoquDBWrapper.
		From(activitiesTable).
		Where(conditions).
		Order(goqu.C("created_at").Asc())

	var rows []models.CrateActivity
	if err := query.Executor().ScanStructs(&rows); err != nil {
		return nil, fmt.Errorf("unable to select activities for session %s: %w", sessionID, err)
	}
	return rows, nil
}

// FindCompletedTransferOut locates the completed outbound transfer that
// an incoming transfer at targetWarehouse has to pair with.
func (r *ActivityRepository) FindCompletedTransferOut(crateID, targetWarehouse string) (*models.CrateActivity, error) {
	var row models.CrateActivity
	query := r.repository.GoquDBWrapper.
		From(activitiesTable).
		Where(goqu.Ex{
			"crate_id":         crateID,
			"activity":         string(metadata.ActivityTransferOut),
			"status":           string(metadata.StatusCompleted),
			"target_warehouse": targetWarehouse,
		}).
		Order(goqu.C("created_at").Desc()).
		Limit(1)

	found, err := query.Executor().ScanStruct(&row)
	if err != nil {
		return nil, fmt.Errorf("unable to select transfer out for crate %s: %w", crateID, err)
	}
	if !found {
		return nil, nil
	}
	return &row, nil
}

// HasTransferOutSince reports whether the crate was already added to a
// transfer out from sourceWarehouse after its last procurement.
func (r *ActivityRepository) HasTransferOutSince(crateID, sourceWarehouse string, since time.Time) (bool, error) {
	return r.exists(goqu.Ex{
		"crate_id":         crateID,
		"activity":         string(metadata.ActivityTransferOut),
		"source_warehouse": sourceWarehouse,
	}, goqu.C("created_at").Gt(since))
}

// HasCompletedTransferIn reports whether the crate was already received
// at targetWarehouse.
func (r *ActivityRepository) HasCompletedTransferIn(crateID, targetWarehouse string) (bool, error) {
	return r.exists(goqu.Ex{
		"crate_id":         crateID,
		"activity":         string(metadata.ActivityTransferIn),
		"status":           string(metadata.StatusCompleted),
		"target_warehouse": targetWarehouse,
	})
}

// PackageIDs returns the distinct sub-package ids already allocated for
// a picklist.
func (r *ActivityRepository) PackageIDs(picklistID string) ([]string, error) {
	query := r.repository.GoquDBWrapper.
		From(activitiesTable).
		SelectDistinct("package_id").
		Where(goqu.Ex{
			"activity":    string(metadata.ActivityPicking),
			"picklist_id": picklistID,
		}, goqu.C("package_id").Neq(""))

	var ids []string
	if err := query.Executor().ScanVals(&ids); err != nil {
		return nil, fmt.Errorf("unable to select package ids for picklist %s: %w", picklistID, err)
	}
	return ids, nil
}

// ListByLinkedReference fetches the rows whose reference id appears in
// refIDs, i.e. the outbound halves of paired transfer flows.
func (r *ActivityRepository) ListByLinkedReference(refIDs []string) ([]models.CrateActivity, error) {
	if len(refIDs) == 0 {
		return nil, nil
	}

	query := r.repository.GoquDBWrapper.
		From(activitiesTable).
		Where(goqu.Ex{"reference_id": refIDs}).
		Order(goqu.C("created_at").Asc())

	var rows []models.CrateActivity
	if err := query.Executor().ScanStructs(&rows); err != nil {
		return nil, fmt.Errorf("unable to select linked activities: %w", err)
	}
	return rows, nil
}

// CompleteSessionDrafts flips the session's Draft rows to Completed and
// returns the rows that were finalized.
func (r *ActivityRepository) CompleteSessionDrafts(sessionID string) ([]models.CrateActivity, error) {
	drafts, err := r.ListBySession(sessionID, metadata.StatusDraft)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, nil
	}

	err = repository.WithTransaction(r.repository, func(tx *goqu.TxDatabase) error {
		_, err := tx.Update(activitiesTable).
			Set(goqu.Record{"status": string(metadata.StatusCompleted)}).
			Where(goqu.Ex{
				"session_id": sessionID,
				"status":     string(metadata.StatusDraft),
			}).
			Executor().
			Exec()
		if err != nil {
			return fmt.Errorf("failed to complete drafts for session %s: %w", sessionID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range drafts {
		drafts[i].Status = metadata.StatusCompleted
	}
	return drafts, nil
}

func (r *ActivityRepository) exists(conditions ...goqu.Expression) (bool, error) {
	var count int
	query := r.repository.GoquDBWrapper.
		From(activitiesTable).
		Select(goqu.COUNT("*")).
		Where(conditions...)

	if _, err := query.Executor().ScanVal(&count); err != nil {
		return false, fmt.Errorf("unable to count crate activities: %w", err)
	}
	return count > 0, nil
}
