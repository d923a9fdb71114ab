package refdata

import (
	"fmt"

	"github.com/IoTReady/iotready-godesi/internal/repository"
	"github.com/IoTReady/iotready-godesi/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

// RefDataRepository reads the master data the validation engine checks
// crate events against: items, suppliers, vehicles, warehouses and the
// per-warehouse routing and catalog link tables.
type RefDataRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *RefDataRepository {
	return &RefDataRepository{repository: r}
}

func (r *RefDataRepository) GetItem(code string) (*models.Item, error) {
	var item models.Item
	query := r.repository.GoquDBWrapper.
		From("items").
		Where(goqu.Ex{"code": code, "disabled": false})

	found, err := query.Executor().ScanStruct(&item)
	if err != nil {
		return nil, fmt.Errorf("unable to select item %s: %w", code, err)
	}
	if !found {
		return nil, nil
	}
	return &item, nil
}

func (r *RefDataRepository) SupplierExists(id string) (bool, error) {
	return r.exists("suppliers", goqu.Ex{"id": id, "disabled": false})
}

func (r *RefDataRepository) VehicleExists(licensePlate string) (bool, error) {
	return r.exists("vehicles", goqu.Ex{"license_plate": licensePlate})
}

func (r *RefDataRepository) WarehouseExists(id string) (bool, error) {
	return r.exists("warehouses", goqu.Ex{"id": id})
}

func (r *RefDataRepository) PicklistExists(id string) (bool, error) {
	return r.exists("picklists", goqu.Ex{"id": id})
}

func (r *RefDataRepository) GetWarehouse(id string) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	query := r.repository.GoquDBWrapper.
		From("warehouses").
		Where(goqu.Ex{"id": id})

	found, err := query.Executor().ScanStruct(&warehouse)
	if err != nil {
		return nil, fmt.Errorf("unable to select warehouse %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &warehouse, nil
}

// DestinationAllowed reports whether target appears in the source
// warehouse's configured destination set.
func (r *RefDataRepository) DestinationAllowed(sourceWarehouse, targetWarehouse string) (bool, error) {
	return r.exists("warehouse_destinations", goqu.Ex{
		"source_warehouse": sourceWarehouse,
		"target_warehouse": targetWarehouse,
	})
}

func (r *RefDataRepository) ListDestinationWarehouses(sourceWarehouse string) ([]models.Warehouse, error) {
	query := r.repository.GoquDBWrapper.
		Select(
			goqu.I("w.id").As("id"),
			goqu.I("w.name").As("name"),
			goqu.I("w.batch_prefix").As("batch_prefix"),
			goqu.I("w.crate_weight").As("crate_weight"),
			goqu.I("w.crate_label_template").As("crate_label_template"),
		).
		From(goqu.T("warehouse_destinations").As("d")).
		LeftJoin(
			goqu.T("warehouses").As("w"),
			goqu.On(goqu.Ex{"d.target_warehouse": goqu.I("w.id")}),
		).
		Where(goqu.Ex{"d.source_warehouse": sourceWarehouse}).
		Order(goqu.I("w.id").Asc())

	var warehouses []models.Warehouse
	if err := query.Executor().ScanStructs(&warehouses); err != nil {
		return nil, fmt.Errorf("unable to select destination warehouses: %w", err)
	}
	return warehouses, nil
}

// ListItems returns the enabled items in the warehouse's catalog, stock
// UOM normalized to the two units the engine reconciles.
func (r *RefDataRepository) ListItems(warehouseID string) ([]models.Item, error) {
	query := r.repository.GoquDBWrapper.
		Select(
			goqu.I("i.code").As("code"),
			goqu.I("i.name").As("name"),
			goqu.I("i.stock_uom").As("stock_uom"),
			goqu.I("i.secondary_box_weight").As("secondary_box_weight"),
			goqu.I("i.tertiary_packaging_weight").As("tertiary_packaging_weight"),
			goqu.I("i.lower_tolerance").As("lower_tolerance"),
			goqu.I("i.upper_tolerance").As("upper_tolerance"),
			goqu.I("i.moisture_loss").As("moisture_loss"),
		).
		From(goqu.T("warehouse_items").As("wi")).
		LeftJoin(
			goqu.T("items").As("i"),
			goqu.On(goqu.Ex{"wi.item_code": goqu.I("i.code")}),
		).
		Where(goqu.Ex{"wi.warehouse_id": warehouseID, "i.disabled": false}).
		Order(goqu.I("i.code").Asc())

	var items []models.Item
	if err := query.Executor().ScanStructs(&items); err != nil {
		return nil, fmt.Errorf("unable to select warehouse items: %w", err)
	}
	return items, nil
}

func (r *RefDataRepository) ListSuppliers(warehouseID string) ([]models.Supplier, error) {
	query := r.repository.GoquDBWrapper.
		Select(
			goqu.I("s.id").As("id"),
			goqu.I("s.name").As("name"),
		).
		From(goqu.T("warehouse_suppliers").As("ws")).
		LeftJoin(
			goqu.T("suppliers").As("s"),
			goqu.On(goqu.Ex{"ws.supplier_id": goqu.I("s.id")}),
		).
		Where(goqu.Ex{"ws.warehouse_id": warehouseID, "s.disabled": false}).
		Order(goqu.I("s.id").Asc())

	var suppliers []models.Supplier
	if err := query.Executor().ScanStructs(&suppliers); err != nil {
		return nil, fmt.Errorf("unable to select warehouse suppliers: %w", err)
	}
	return suppliers, nil
}

func (r *RefDataRepository) ListVehicles() ([]models.Vehicle, error) {
	query := r.repository.GoquDBWrapper.
		From("vehicles").
		Order(goqu.C("license_plate").Asc())

	var vehicles []models.Vehicle
	if err := query.Executor().ScanStructs(&vehicles); err != nil {
		return nil, fmt.Errorf("unable to select vehicles: %w", err)
	}
	return vehicles, nil
}

func (r *RefDataRepository) exists(table string, conditions goqu.Ex) (bool, error) {
	var count int
	query := r.repository.GoquDBWrapper.
		From(table).
		Select(goqu.COUNT("*")).
		Where(conditions)

	if _, err := query.Executor().ScanVal(&count); err != nil {
		return false, fmt.Errorf("unable to count rows in %s: %w", table, err)
	}
	return count > 0, nil
}
