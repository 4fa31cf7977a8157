package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yihsuanlo/homevault/backend/internal/models"
)

func TestCreateDeviceDerivesWarranty(t *testing.T) {
	store, _, _ := setupStore(t)
	store.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	d := &models.Device{
		Name:                   "Dishwasher",
		PurchaseDate:           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Unix(),
		WarrantyDurationMonths: 12,
	}
	require.NoError(t, store.CreateDevice(d))

	got, err := store.GetDevice(d.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC).Unix(), got.WarrantyExpiry)
	assert.Equal(t, models.DeviceStatusActive, got.Status)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)
}

func TestCreateDeviceExpiredByClock(t *testing.T) {
	store, _, _ := setupStore(t)
	store.now = func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) }

	d := &models.Device{
		Name:                   "Kettle",
		PurchaseDate:           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Unix(),
		WarrantyDurationMonths: 12,
	}
	require.NoError(t, store.CreateDevice(d))

	got, err := store.GetDevice(d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusExpired, got.Status)
}

func TestUpdateDeviceRecomputesExpiry(t *testing.T) {
	store, _, _ := setupStore(t)
	store.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	d := &models.Device{
		Name:                   "Oven",
		PurchaseDate:           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Unix(),
		WarrantyDurationMonths: 12,
	}
	require.NoError(t, store.CreateDevice(d))

	months := 24
	updated, err := store.UpdateDevice(d.ID, DeviceUpdate{WarrantyDurationMonths: &months})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC).Unix(), updated.WarrantyExpiry)
}

func TestUpdateDeviceExplicitExpiryWins(t *testing.T) {
	store, _, _ := setupStore(t)

	d := &models.Device{
		Name:                   "Router",
		PurchaseDate:           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Unix(),
		WarrantyDurationMonths: 12,
	}
	require.NoError(t, store.CreateDevice(d))

	months := 24
	explicit := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	updated, err := store.UpdateDevice(d.ID, DeviceUpdate{
		WarrantyDurationMonths: &months,
		WarrantyExpiry:         &explicit,
	})
	require.NoError(t, err)
	assert.Equal(t, explicit, updated.WarrantyExpiry)
}

func TestUpdateDeviceInServiceFreezesStatus(t *testing.T) {
	store, _, _ := setupStore(t)
	store.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	d := &models.Device{
		Name:                   "Vacuum",
		PurchaseDate:           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Unix(),
		WarrantyDurationMonths: 12,
	}
	require.NoError(t, store.CreateDevice(d))

	inService := models.DeviceStatusInService
	updated, err := store.UpdateDevice(d.ID, DeviceUpdate{Status: &inService})
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusInService, updated.Status)

	// A later unrelated update must not recompute the status.
	brand := "Bosch"
	updated, err = store.UpdateDevice(d.ID, DeviceUpdate{Brand: &brand})
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusInService, updated.Status)
}

func TestDeleteDeviceCascadesReminders(t *testing.T) {
	store, _, sqlDB := setupStore(t)

	d := &models.Device{Name: "Printer"}
	require.NoError(t, store.CreateDevice(d))
	require.NoError(t, store.CreateReminder(&models.Reminder{DeviceID: d.ID, RemindAt: 100}))

	require.NoError(t, store.DeleteDevice(d.ID))

	var reminders int
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM reminders").Scan(&reminders))
	assert.Equal(t, 0, reminders)

	deletes := queueItems(t, sqlDB, models.OpDelete)
	require.Len(t, deletes, 1, "only the device delete is enqueued")
	assert.Equal(t, models.EntityDevice, deletes[0].EntityType)
}
