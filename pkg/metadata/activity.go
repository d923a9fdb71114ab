package metadata

// Activity names one crate workflow type. The set is fixed at compile
// time; devices learn it from the configuration endpoint.
type Activity string

const (
	ActivityProcurement Activity = "Procurement"
	ActivityTransferOut Activity = "Transfer Out"
	ActivityTransferIn  Activity = "Transfer In"
	ActivityPicking     Activity = "Picking"
)

type ActivityStatus string

const (
	StatusDraft     ActivityStatus = "Draft"
	StatusCompleted ActivityStatus = "Completed"
)

// Stock units of measure. "Nos" crates are counted, "Kg" crates are
// weighed and their GRN quantity always equals the captured weight.
const (
	UOMNos = "Nos"
	UOMKg  = "Kg"
)

// NormalizeUOM maps supplier-side unit spellings onto the two units the
// engine reconciles against.
func NormalizeUOM(uom string) string {
	switch uom {
	case "nos", "Nos", "pcs", "Pcs", "PCS", "NOS":
		return UOMNos
	default:
		return UOMKg
	}
}

// Package id sentinels accepted from picking devices.
const (
	PackageNew   = "New"
	PackageWhole = "Whole"
)
