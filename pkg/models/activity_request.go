package models

// CrateEvent is one scan/weigh event from a device. Fields beyond the
// crate id are activity specific; handlers validate what they need and
// reject, per crate, what is missing.
type CrateEvent struct {
	CrateID         string   `json:"crate_id" binding:"required"`
	ItemCode        string   `json:"item_code,omitempty"`
	SupplierID      string   `json:"supplier_id,omitempty"`
	Quantity        float64  `json:"quantity,omitempty"`
	Weight          *float64 `json:"weight,omitempty"`
	TargetWarehouse string   `json:"target_warehouse,omitempty"`
	Vehicle         string   `json:"vehicle,omitempty"`
	PicklistID      string   `json:"picklist_id,omitempty"`
	PackageID       string   `json:"package_id,omitempty"`
	// IsFinal lets the operator force-finalize a crate that failed only
	// the lower tolerance bound.
	IsFinal bool `json:"is_final,omitempty"`
}

// RecordActivityRequest is the batch submission contract. Metadata is a
// JSON-encoded object merged into the session context before any crate
// event is processed.
type RecordActivityRequest struct {
	SessionID string       `json:"session_id" binding:"required"`
	Crates    []CrateEvent `json:"crates"`
	Metadata  string       `json:"metadata,omitempty"`
}

// CrateOutcome is the per-event result. A failed crate never aborts its
// siblings; its validation message surfaces here.
type CrateOutcome struct {
	CrateID          string   `json:"crate_id"`
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	Label            string   `json:"label,omitempty"`
	AllowFinalCrate  bool     `json:"allow_final_crate"`
	MissingPackageID bool     `json:"missing_package_id,omitempty"`
	PackageIDs       []string `json:"package_ids,omitempty"`
}

// ActivityRequirements tells the device how to drive its UI for an
// activity. Compiled into the registry, never mutated at runtime.
type ActivityRequirements struct {
	NeedWeight            bool `json:"need_weight"`
	NeedsSubmit           bool `json:"needs_submit"`
	AllowMultipleAPICalls bool `json:"allow_multiple_api_calls"`
	AllowEditQuantity     bool `json:"allow_edit_quantity"`
	Label                 bool `json:"label"`
	Hidden                bool `json:"hidden"`
}

// RecordActivityResponse is the full batch response: echoed session id,
// device feedback commands, JSON-encoded summary and form hints, and
// one outcome per submitted crate event.
type RecordActivityResponse struct {
	SessionID string              `json:"session_id"`
	BLE       map[string][]string `json:"ble"`
	Summary   string              `json:"summary"`
	Form      string              `json:"form"`
	Crates    []CrateOutcome      `json:"crates"`
	ActivityRequirements
}

// ItemSummary is the per-item rollup recomputed from the session's
// ledger rows.
type ItemSummary struct {
	ItemCode         string  `json:"item_code"`
	StockUOM         string  `json:"stock_uom"`
	Quantity         float64 `json:"quantity"`
	Weight           float64 `json:"weight"`
	ExpectedQuantity float64 `json:"expected_quantity"`
	ExpectedWeight   float64 `json:"expected_weight"`
	Count            int     `json:"count"`
}

// CrateSummary is the per-crate rollup. For incoming transfers the
// expected count comes from the paired transfer-out group; for all
// other activities expected equals done.
type CrateSummary struct {
	Expected     int     `json:"expected"`
	Done         int     `json:"done"`
	Pending      int     `json:"pending"`
	Weight       float64 `json:"weight"`
	MoistureLoss float64 `json:"moisture_loss"`
	ActualLoss   float64 `json:"actual_loss"`
}

// SessionSummary is the aggregation view for one session, including the
// merged composite record of every crate the session touched.
type SessionSummary struct {
	SessionID    string          `json:"session_id"`
	Activity     string          `json:"activity"`
	ItemSummary  []ItemSummary   `json:"item_summary"`
	CrateSummary CrateSummary    `json:"crate_summary"`
	Crates       []CrateActivity `json:"crates"`
}
