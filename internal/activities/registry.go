package activities

import (
	"github.com/IoTReady/iotready-godesi/pkg/metadata"
	"github.com/IoTReady/iotready-godesi/pkg/models"
)

// ActivityHandler processes one crate event for one activity type. A
// returned error aborts only that crate; it becomes the crate-level
// failure message and nothing is written to the ledger for the event.
type ActivityHandler interface {
	Requirements() models.ActivityRequirements
	Process(sc models.SessionContext, ev models.CrateEvent) (models.CrateOutcome, error)
}

// Registry maps activity types to their handlers. It is built once at
// process start and never mutated afterwards; the activity set is
// compiled in, not user-configurable.
type Registry struct {
	handlers map[metadata.Activity]ActivityHandler
	order    []metadata.Activity
}

func NewRegistry(ledger Ledger, crateStore CrateStore, ref RefData) *Registry {
	v := &validator{ledger: ledger, crates: crateStore, refdata: ref}

	return &Registry{
		handlers: map[metadata.Activity]ActivityHandler{
			metadata.ActivityProcurement: &ProcurementHandler{v: v, ledger: ledger, crates: crateStore, refdata: ref},
			metadata.ActivityTransferOut: &TransferOutHandler{v: v, ledger: ledger, crates: crateStore},
			metadata.ActivityTransferIn:  &TransferInHandler{v: v, ledger: ledger, crates: crateStore, refdata: ref},
			metadata.ActivityPicking:     &PickingHandler{v: v, ledger: ledger, crates: crateStore},
		},
		order: []metadata.Activity{
			metadata.ActivityProcurement,
			metadata.ActivityTransferOut,
			metadata.ActivityTransferIn,
			metadata.ActivityPicking,
		},
	}
}

func (r *Registry) Handler(activity metadata.Activity) (ActivityHandler, bool) {
	h, ok := r.handlers[activity]
	return h, ok
}

func (r *Registry) Requirements(activity metadata.Activity) (models.ActivityRequirements, bool) {
	h, ok := r.handlers[activity]
	if !ok {
		return models.ActivityRequirements{}, false
	}
	return h.Requirements(), true
}

// AllowedActivities returns the activity keys in registration order,
// for the device configuration payload.
func (r *Registry) AllowedActivities() []string {
	keys := make([]string, 0, len(r.order))
	for _, a := range r.order {
		keys = append(keys, string(a))
	}
	return keys
}

func (r *Registry) RequirementsMap() map[string]models.ActivityRequirements {
	out := make(map[string]models.ActivityRequirements, len(r.handlers))
	for activity, h := range r.handlers {
		out[string(activity)] = h.Requirements()
	}
	return out
}
