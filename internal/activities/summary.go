package activities

import (
	"github.com/IoTReady/iotready-godesi/pkg/metadata"
	"github.com/IoTReady/iotready-godesi/pkg/models"
)

// buildSummary recomputes the session rollups from the ledger. Nothing
// is cached; the view is always derived from the rows as written.
func (s *ActivityService) buildSummary(sessionID string, activity metadata.Activity) (models.SessionSummary, error) {
	rows, err := s.ledger.ListBySession(sessionID, "")
	if err != nil {
		return models.SessionSummary{}, err
	}

	summary := models.SessionSummary{
		SessionID:   sessionID,
		Activity:    string(activity),
		ItemSummary: buildItemSummary(rows),
	}

	crateSummary, err := s.buildCrateSummary(rows, activity)
	if err != nil {
		return models.SessionSummary{}, err
	}
	summary.CrateSummary = crateSummary

	crates, err := s.collectCrateStates(rows)
	if err != nil {
		return models.SessionSummary{}, err
	}
	summary.Crates = crates

	return summary, nil
}

func buildItemSummary(rows []models.CrateActivity) []models.ItemSummary {
	index := map[string]int{}
	var items []models.ItemSummary

	for _, row := range rows {
		i, seen := index[row.ItemCode]
		if !seen {
			index[row.ItemCode] = len(items)
			items = append(items, models.ItemSummary{
				ItemCode: row.ItemCode,
				StockUOM: row.StockUOM,
			})
			i = len(items) - 1
		}

		quantity, weight := row.GRNQuantity, row.CrateWeight
		if row.Activity == metadata.ActivityPicking {
			quantity, weight = row.PickedQuantity, row.PickedWeight
		}

		items[i].Quantity += quantity
		items[i].Weight += weight
		items[i].ExpectedQuantity += row.LastKnownGRNQuantity
		items[i].ExpectedWeight += row.LastKnownWeight
		items[i].Count++
	}

	return items
}

// buildCrateSummary counts expected versus completed crates. Incoming
// transfers aggregate across the paired out/in rows of their linked
// reference group; every other activity counts the session's own rows.
func (s *ActivityService) buildCrateSummary(rows []models.CrateActivity, activity metadata.Activity) (models.CrateSummary, error) {
	summary := models.CrateSummary{}
	for _, row := range rows {
		summary.Weight += row.CrateWeight
		summary.MoistureLoss += row.MoistureLoss
		summary.ActualLoss += row.ActualLoss
	}

	done := countDistinctCrates(rows)
	summary.Done = done

	if activity != metadata.ActivityTransferIn {
		summary.Expected = done
		return summary, nil
	}

	expected, err := s.expectedTransferGroupSize(rows)
	if err != nil {
		return models.CrateSummary{}, err
	}
	if expected < done {
		expected = done
	}
	summary.Expected = expected
	summary.Pending = expected - done
	return summary, nil
}

// expectedTransferGroupSize resolves how many crates the dispatching
// sessions sent toward this warehouse, by walking from the linked
// transfer-out rows back to their sessions.
func (s *ActivityService) expectedTransferGroupSize(rows []models.CrateActivity) (int, error) {
	var refIDs []string
	var targetWarehouse string
	seen := map[string]struct{}{}
	for _, row := range rows {
		if row.LinkedReferenceID == "" {
			continue
		}
		if _, dup := seen[row.LinkedReferenceID]; dup {
			continue
		}
		seen[row.LinkedReferenceID] = struct{}{}
		refIDs = append(refIDs, row.LinkedReferenceID)
		targetWarehouse = row.TargetWarehouse
	}
	if len(refIDs) == 0 {
		return 0, nil
	}

	outs, err := s.ledger.ListByLinkedReference(refIDs)
	if err != nil {
		return 0, err
	}

	outSessions := map[string]struct{}{}
	for _, out := range outs {
		outSessions[out.SessionID] = struct{}{}
	}

	expected := map[string]struct{}{}
	for sessionID := range outSessions {
		groupRows, err := s.ledger.ListBySession(sessionID, "")
		if err != nil {
			return 0, err
		}
		for _, row := range groupRows {
			if row.Activity == metadata.ActivityTransferOut && row.TargetWarehouse == targetWarehouse {
				expected[row.CrateID] = struct{}{}
			}
		}
	}
	return len(expected), nil
}

func (s *ActivityService) collectCrateStates(rows []models.CrateActivity) ([]models.CrateActivity, error) {
	seen := map[string]struct{}{}
	var crates []models.CrateActivity
	for _, row := range rows {
		if _, dup := seen[row.CrateID]; dup {
			continue
		}
		seen[row.CrateID] = struct{}{}

		state, err := s.ledger.CurrentState(row.CrateID)
		if err != nil {
			return nil, err
		}
		if state != nil {
			crates = append(crates, *state)
		}
	}
	return crates, nil
}

func countDistinctCrates(rows []models.CrateActivity) int {
	seen := map[string]struct{}{}
	for _, row := range rows {
		seen[row.CrateID] = struct{}{}
	}
	return len(seen)
}
