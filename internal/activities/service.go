package activities

import (
	"encoding/json"
	"strings"

	"github.com/IoTReady/iotready-godesi/pkg/auditlog"
	custom_error "github.com/IoTReady/iotready-godesi/pkg/errors"
	"github.com/IoTReady/iotready-godesi/pkg/metadata"
	"github.com/IoTReady/iotready-godesi/pkg/models"

	"go.uber.org/zap"
)

// Catalog lists the master data a warehouse device needs to render its
// forms. Kept separate from RefData so handlers depend only on the
// lookups they validate with.
type Catalog interface {
	ListDestinationWarehouses(sourceWarehouse string) ([]models.Warehouse, error)
	ListItems(warehouseID string) ([]models.Item, error)
	ListSuppliers(warehouseID string) ([]models.Supplier, error)
	ListVehicles() ([]models.Vehicle, error)
}

// ActivityService orchestrates batch event recording: it resolves the
// session, merges submitted context, dispatches every crate event to
// the session's activity handler and assembles the device response.
type ActivityService struct {
	registry *Registry
	sessions SessionStore
	ledger   Ledger
	refdata  RefData
	catalog  Catalog
	audit    *auditlog.Auditlog
	logger   *zap.Logger
}

func NewActivityService(
	registry *Registry,
	sessions SessionStore,
	ledger Ledger,
	refdata RefData,
	catalog Catalog,
	audit *auditlog.Auditlog,
	logger *zap.Logger,
) *ActivityService {
	return &ActivityService{
		registry: registry,
		sessions: sessions,
		ledger:   ledger,
		refdata:  refdata,
		catalog:  catalog,
		audit:    audit,
		logger:   logger,
	}
}

// RecordActivity processes one batch of crate events. A failed crate
// never aborts its siblings; only an expired session short-circuits the
// remainder of the batch. The returned response is always well formed,
// even when every event failed.
func (s *ActivityService) RecordActivity(req models.RecordActivityRequest) models.RecordActivityResponse {
	sc, ok := s.sessions.Get(req.SessionID)
	if !ok {
		return s.expiredResponse(req)
	}

	if req.Metadata != "" {
		var partial map[string]any
		if err := json.Unmarshal([]byte(req.Metadata), &partial); err != nil {
			s.logger.Warn("Ignoring malformed session metadata",
				zap.String("session_id", req.SessionID),
				zap.Error(err),
			)
		} else if len(partial) > 0 {
			if !s.sessions.Merge(req.SessionID, partial) {
				return s.expiredResponse(req)
			}
		}
	}

	handler, ok := s.registry.Handler(sc.Activity)
	if !ok {
		// Sessions are only ever created for registered activities, so
		// this is a programming error, not user input.
		s.logger.Error("No handler registered for activity", zap.String("activity", string(sc.Activity)))
		return s.expiredResponse(req)
	}

	outcomes := make([]models.CrateOutcome, 0, len(req.Crates))
	expired := false

	for _, ev := range req.Crates {
		ev.CrateID = strings.TrimSpace(ev.CrateID)

		if expired {
			outcomes = append(outcomes, expiredOutcome(ev.CrateID))
			continue
		}

		// Re-read so mid-batch merges and TTL expiry take effect per
		// event, not per batch.
		sc, ok = s.sessions.Get(req.SessionID)
		if !ok {
			expired = true
			outcomes = append(outcomes, expiredOutcome(ev.CrateID))
			continue
		}

		if ev.CrateID == "" {
			outcomes = append(outcomes, models.CrateOutcome{
				Success: false,
				Message: "Crate id is required.",
			})
			continue
		}

		outcome, err := handler.Process(sc, ev)
		outcome.CrateID = ev.CrateID
		if err != nil {
			if custom_error.KindOf(err) == custom_error.KindSessionExpired {
				expired = true
				outcomes = append(outcomes, expiredOutcome(ev.CrateID))
				continue
			}
			outcome.Success = false
			outcome.Message = err.Error()
			outcome.AllowFinalCrate = custom_error.IsUnderTolerance(err)
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome.Success = true
		if outcome.Message == "" {
			outcome.Message = "Event recorded successfully."
		}
		outcomes = append(outcomes, outcome)

		if s.audit != nil {
			entry := models.CrateActivity{
				CrateID:   ev.CrateID,
				Activity:  sc.Activity,
				SessionID: sc.SessionID,
			}
			go s.audit.Log(string(sc.Activity), outcome, &entry)
		}
	}

	return s.assembleResponse(sc, outcomes)
}

func (s *ActivityService) assembleResponse(sc models.SessionContext, outcomes []models.CrateOutcome) models.RecordActivityResponse {
	anySuccess := false
	for _, o := range outcomes {
		if o.Success {
			anySuccess = true
			break
		}
	}

	summaryJSON := "{}"
	summary, err := s.buildSummary(sc.SessionID, sc.Activity)
	if err != nil {
		s.logger.Error("Failed to build session summary",
			zap.String("session_id", sc.SessionID),
			zap.Error(err),
		)
	} else if raw, err := json.Marshal(summary); err == nil {
		summaryJSON = string(raw)
	}

	formJSON, _ := json.Marshal(map[string]bool{"refresh": anySuccess})

	requirements, _ := s.registry.Requirements(sc.Activity)

	return models.RecordActivityResponse{
		SessionID:            sc.SessionID,
		BLE:                  EncodeFeedback(outcomes),
		Summary:              summaryJSON,
		Form:                 string(formJSON),
		Crates:               outcomes,
		ActivityRequirements: requirements,
	}
}

// expiredResponse fails every submitted event uniformly. Nothing has
// been written, so the summary is empty and the device shows no
// feedback beyond the per-crate messages.
func (s *ActivityService) expiredResponse(req models.RecordActivityRequest) models.RecordActivityResponse {
	outcomes := make([]models.CrateOutcome, 0, len(req.Crates))
	for _, ev := range req.Crates {
		outcomes = append(outcomes, expiredOutcome(strings.TrimSpace(ev.CrateID)))
	}

	formJSON, _ := json.Marshal(map[string]bool{"refresh": false})

	return models.RecordActivityResponse{
		SessionID: req.SessionID,
		BLE:       map[string][]string{},
		Summary:   "{}",
		Form:      string(formJSON),
		Crates:    outcomes,
	}
}

func expiredOutcome(crateID string) models.CrateOutcome {
	return models.CrateOutcome{
		CrateID: crateID,
		Success: false,
		Message: custom_error.SessionExpired().Error(),
	}
}

// CreateSession opens a device session for one activity at the user's
// warehouse and returns its id plus the UI requirements of the
// activity.
func (s *ActivityService) CreateSession(activity string, user *models.User, meta map[string]any) (string, models.ActivityRequirements, error) {
	requirements, ok := s.registry.Requirements(metadata.Activity(activity))
	if !ok {
		return "", models.ActivityRequirements{}, custom_error.NotFound("Activity %s does not exist", activity)
	}

	sessionID := s.sessions.Create(metadata.Activity(activity), user.Warehouse, user.Username, meta)
	return sessionID, requirements, nil
}

// SubmitSession finalizes every draft the session holds. Activities
// with needs_submit stage drafts until the operator confirms the whole
// batch.
func (s *ActivityService) SubmitSession(sessionID string) ([]models.CrateActivity, error) {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return nil, custom_error.SessionExpired()
	}
	return s.ledger.CompleteSessionDrafts(sessionID)
}

// GetSessionSummary recomputes the aggregation for one session from its
// ledger rows.
func (s *ActivityService) GetSessionSummary(sessionID string) (models.SessionSummary, error) {
	sc, ok := s.sessions.Get(sessionID)
	if !ok {
		return models.SessionSummary{}, custom_error.SessionExpired()
	}
	return s.buildSummary(sc.SessionID, sc.Activity)
}

// BuildConfiguration assembles the device bootstrap payload for a user:
// their warehouse, the master data scoped to it and the compiled
// activity rules.
func (s *ActivityService) BuildConfiguration(user *models.User) (*models.Configuration, error) {
	warehouse, err := s.refdata.GetWarehouse(user.Warehouse)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, custom_error.NotFound("Warehouse %s does not exist", user.Warehouse)
	}

	destinations, err := s.catalog.ListDestinationWarehouses(warehouse.ID)
	if err != nil {
		return nil, err
	}
	items, err := s.catalog.ListItems(warehouse.ID)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.catalog.ListSuppliers(warehouse.ID)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.catalog.ListVehicles()
	if err != nil {
		return nil, err
	}

	return &models.Configuration{
		Email:                 user.Username,
		FullName:              user.Fullname,
		Warehouse:             warehouse.ID,
		WarehouseName:         warehouse.Name,
		CrateWeight:           warehouse.CrateWeight,
		CrateLabelTemplate:    warehouse.CrateLabelTemplate,
		DestinationWarehouses: destinations,
		Items:                 items,
		Suppliers:             suppliers,
		Vehicles:              vehicles,
		Roles:                 []string{user.Role},
		AllowedActivities:     s.registry.AllowedActivities(),
		ActivityRequirements:  s.registry.RequirementsMap(),
	}, nil
}
