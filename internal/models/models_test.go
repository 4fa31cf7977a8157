package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceAmount(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"rounds up", 19.999, 20.0},
		{"rounds half away from zero", 10.005, 10.01},
		{"two decimals kept", 12.34, 12.34},
		{"nan coerces to zero", math.NaN(), 0},
		{"positive inf coerces to zero", math.Inf(1), 0},
		{"negative inf coerces to zero", math.Inf(-1), 0},
		{"zero stays zero", 0, 0},
		{"negative rounds", -5.555, -5.56},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceAmount(tt.in))
		})
	}
}

func TestDeviceNormalizeDerivesWarrantyExpiry(t *testing.T) {
	purchase := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	d := &Device{
		ID:                     "d1",
		Name:                   "Washing Machine",
		PurchaseDate:           purchase.Unix(),
		WarrantyDurationMonths: 12,
	}
	d.Normalize(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, want, d.WarrantyExpiry)
	assert.Equal(t, DeviceStatusActive, d.Status)
}

func TestDeviceNormalizeStatusByClock(t *testing.T) {
	purchase := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	d := &Device{ID: "d1", Name: "TV", PurchaseDate: purchase.Unix(), WarrantyDurationMonths: 12}

	d.Normalize(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, DeviceStatusActive, d.Status)

	d.Normalize(time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, DeviceStatusExpired, d.Status)
}

func TestDeviceNormalizeKeepsExplicitExpiry(t *testing.T) {
	explicit := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	d := &Device{
		ID:                     "d1",
		Name:                   "Fridge",
		PurchaseDate:           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Unix(),
		WarrantyDurationMonths: 12,
		WarrantyExpiry:         explicit,
	}
	d.Normalize(time.Now())

	assert.Equal(t, explicit, d.WarrantyExpiry)
}

func TestDeviceNormalizeInServiceIsTerminal(t *testing.T) {
	d := &Device{
		ID:             "d1",
		Name:           "Laptop",
		Status:         DeviceStatusInService,
		WarrantyExpiry: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Unix(),
	}
	// Expired by clock, but in_service freezes recomputation.
	d.Normalize(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, DeviceStatusInService, d.Status)
}

func TestDecodeReceipt(t *testing.T) {
	rec, err := DecodeReceipt([]byte(`{"id":"r1","store_name":"IKEA","total_amount":19.999,"updated_at":100}`))
	require.NoError(t, err)
	assert.Equal(t, UUID("r1"), rec.ID)
	assert.Equal(t, 20.0, rec.TotalAmount)
}

func TestDecodeReceiptRejectsBadShape(t *testing.T) {
	cases := map[string]string{
		"not json":           `{"id":`,
		"missing id":         `{"store_name":"IKEA","updated_at":100}`,
		"missing store":      `{"id":"r1","updated_at":100}`,
		"missing updated_at": `{"id":"r1","store_name":"IKEA"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeReceipt([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestDecodeDeviceRejectsBadShape(t *testing.T) {
	_, err := DecodeDevice([]byte(`{"id":"d1","updated_at":100}`))
	assert.Error(t, err, "missing name should fail validation")

	_, err = DecodeDevice([]byte(`{"id":"d1","name":"TV","updated_at":100}`))
	assert.NoError(t, err)
}

func TestDecodeSettings(t *testing.T) {
	st, err := DecodeSettings([]byte(`{"id":"s1","user_id":"u1","currency":"EUR","updated_at":50}`))
	require.NoError(t, err)
	assert.Equal(t, "u1", st.UserID)

	_, err = DecodeSettings([]byte(`{"id":"s1","updated_at":50}`))
	assert.Error(t, err, "missing user_id should fail validation")
}

func TestSnapshotEmpty(t *testing.T) {
	assert.True(t, (&RemoteSnapshot{}).Empty())
	assert.False(t, (&RemoteSnapshot{Receipts: []json.RawMessage{json.RawMessage(`{}`)}}).Empty())
}
