package sessions

import (
	"testing"
	"time"

	"github.com/IoTReady/iotready-godesi/pkg/metadata"

	"github.com/stretchr/testify/assert"
)

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore(time.Hour)

	id := store.Create(metadata.ActivityProcurement, "WH-BLR", "picker1", map[string]any{
		"supplier_id": "SUP-1",
		"items":       []string{"MANGO"}, // transient, must be stripped
	})

	ctx, ok := store.Get(id)
	assert.True(t, ok)
	assert.Equal(t, metadata.ActivityProcurement, ctx.Activity)
	assert.Equal(t, "WH-BLR", ctx.Warehouse)
	assert.Equal(t, "SUP-1", ctx.MetaString("supplier_id"))
	assert.NotContains(t, ctx.Meta, "items")
}

func TestStoreGetAbsentSession(t *testing.T) {
	store := NewStore(time.Hour)

	_, ok := store.Get("no-such-session")
	assert.False(t, ok)
}

func TestStoreMerge(t *testing.T) {
	store := NewStore(time.Hour)
	id := store.Create(metadata.ActivityTransferOut, "WH-BLR", "picker1", map[string]any{
		"vehicle": "KA01AB1234",
	})

	ok := store.Merge(id, map[string]any{
		"target_warehouse": "WH-HYD",
		"crates":           []string{"CR-001"}, // transient
	})
	assert.True(t, ok)

	ctx, _ := store.Get(id)
	assert.Equal(t, "KA01AB1234", ctx.MetaString("vehicle"))
	assert.Equal(t, "WH-HYD", ctx.MetaString("target_warehouse"))
	assert.NotContains(t, ctx.Meta, "crates")
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := NewStore(time.Hour)
	id := store.Create(metadata.ActivityProcurement, "WH-BLR", "picker1", nil)

	ctx, _ := store.Get(id)
	ctx.Meta["supplier_id"] = "SUP-LOCAL"

	fresh, _ := store.Get(id)
	assert.NotContains(t, fresh.Meta, "supplier_id")
}

func TestStoreExpiry(t *testing.T) {
	store := NewStore(30 * time.Minute)
	current := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	id := store.Create(metadata.ActivityPicking, "WH-BLR", "picker1", nil)

	_, ok := store.Get(id)
	assert.True(t, ok)

	current = current.Add(31 * time.Minute)

	_, ok = store.Get(id)
	assert.False(t, ok)
	assert.False(t, store.Merge(id, map[string]any{"picklist_id": "PL-1"}))
}
