package models

// Item is a stock keeping unit with the packaging constants used by the
// procurement tolerance band.
type Item struct {
	Code                    string  `json:"item_code" db:"code"`
	Name                    string  `json:"item_name" db:"name"`
	StockUOM                string  `json:"stock_uom" db:"stock_uom"`
	SecondaryBoxWeight      float64 `json:"secondary_box_weight" db:"secondary_box_weight"`
	TertiaryPackagingWeight float64 `json:"tertiary_packaging_weight" db:"tertiary_packaging_weight"`
	LowerTolerance          float64 `json:"lower_tolerance" db:"lower_tolerance"`
	UpperTolerance          float64 `json:"upper_tolerance" db:"upper_tolerance"`
	MoistureLoss            float64 `json:"moisture_loss" db:"moisture_loss"`
	Disabled                bool    `json:"-" db:"disabled"`
}

type Supplier struct {
	ID       string `json:"supplier_id" db:"id"`
	Name     string `json:"supplier_name" db:"name"`
	Disabled bool   `json:"-" db:"disabled"`
}

type Vehicle struct {
	LicensePlate  string `json:"license_plate" db:"license_plate"`
	Transporter   string `json:"transporter" db:"transporter"`
	VehicleType   string `json:"vehicle_type" db:"vehicle_type"`
	CrateCapacity int    `json:"vehicle_crate_capacity" db:"crate_capacity"`
}

type Warehouse struct {
	ID                 string  `json:"warehouse_id" db:"id"`
	Name               string  `json:"warehouse_name" db:"name"`
	BatchPrefix        string  `json:"-" db:"batch_prefix"`
	CrateWeight        float64 `json:"crate_weight" db:"crate_weight"`
	CrateLabelTemplate string  `json:"crate_label_template" db:"crate_label_template"`
}

type Picklist struct {
	ID         string `json:"picklist_id" db:"id"`
	Customer   string `json:"customer" db:"customer"`
	Status     string `json:"status" db:"status"`
	AssignedTo string `json:"assigned_to" db:"assigned_to"`
}

// Configuration is returned to devices so they can adapt their UI
// without hardcoding activity rules.
type Configuration struct {
	Email                 string                          `json:"email"`
	FullName              string                          `json:"full_name"`
	Warehouse             string                          `json:"warehouse"`
	WarehouseName         string                          `json:"warehouse_name"`
	CrateWeight           float64                         `json:"crate_weight"`
	CrateLabelTemplate    string                          `json:"crate_label_template"`
	DestinationWarehouses []Warehouse                     `json:"destination_warehouses"`
	Items                 []Item                          `json:"items"`
	Suppliers             []Supplier                      `json:"suppliers"`
	Vehicles              []Vehicle                       `json:"vehicles"`
	Roles                 []string                        `json:"roles"`
	AllowedActivities     []string                        `json:"allowed_activities"`
	ActivityRequirements  map[string]ActivityRequirements `json:"activity_requirements"`
}
