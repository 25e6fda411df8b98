package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gatewarden/server/internal/gatewarden/store"
	sqlitestore "github.com/gatewarden/server/internal/gatewarden/store/sqlite"
)

func testDeviceRecord(deviceID string) store.DeviceRecord {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return store.DeviceRecord{
		DeviceID:       deviceID,
		Name:           "Main Entrance",
		Location:       "Lobby",
		Role:           "entry",
		Address:        "192.168.1.10",
		Port:           8080,
		Active:         true,
		TimeoutMs:      5000,
		RetryAttempts:  3,
		LoggingEnabled: true,
		Owner:          "admin-1",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Insert / Get
// ═══════════════════════════════════════════════════════════════════════════

func TestDeviceStore_InsertAndGet(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	ctx := context.Background()

	if err := ds.Insert(ctx, testDeviceRecord("DOOR-001")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := ds.Get(ctx, "DOOR-001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.Name != "Main Entrance" {
		t.Errorf("expected name=Main Entrance, got %q", got.Name)
	}
	if got.Role != "entry" {
		t.Errorf("expected role=entry, got %q", got.Role)
	}
	if got.Address != "192.168.1.10" || got.Port != 8080 {
		t.Errorf("unexpected address/port: %s:%d", got.Address, got.Port)
	}
	if !got.Active {
		t.Error("expected active=true")
	}
	if got.LastHeartbeat != nil {
		t.Error("expected nil last heartbeat for a fresh device")
	}
	if got.TimeoutMs != 5000 || got.RetryAttempts != 3 || !got.LoggingEnabled {
		t.Errorf("unexpected settings: %+v", got)
	}
	if got.Owner != "admin-1" {
		t.Errorf("expected owner=admin-1, got %q", got.Owner)
	}
}

func TestDeviceStore_Insert_Duplicate(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	ctx := context.Background()

	if err := ds.Insert(ctx, testDeviceRecord("DOOR-001")); err != nil {
		t.Fatalf("first Insert: %v", err)
	}

	err := ds.Insert(ctx, testDeviceRecord("DOOR-001"))
	if !errors.Is(err, store.ErrDeviceExists) {
		t.Fatalf("expected ErrDeviceExists, got %v", err)
	}
}

func TestDeviceStore_Get_Unknown(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)

	_, err := ds.Get(context.Background(), "GHOST-9")
	if !errors.Is(err, store.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// SetLastHeartbeat / SetActive
// ═══════════════════════════════════════════════════════════════════════════

func TestDeviceStore_SetLastHeartbeat(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	ctx := context.Background()

	if err := ds.Insert(ctx, testDeviceRecord("DOOR-001")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	hb := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	if err := ds.SetLastHeartbeat(ctx, "DOOR-001", hb); err != nil {
		t.Fatalf("SetLastHeartbeat: %v", err)
	}

	got, err := ds.Get(ctx, "DOOR-001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LastHeartbeat == nil || !got.LastHeartbeat.Equal(hb) {
		t.Errorf("expected last heartbeat %v, got %v", hb, got.LastHeartbeat)
	}
	if !got.UpdatedAt.Equal(hb) {
		t.Errorf("expected updated_at to advance to %v, got %v", hb, got.UpdatedAt)
	}
}

func TestDeviceStore_SetLastHeartbeat_Unknown(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)

	err := ds.SetLastHeartbeat(context.Background(), "GHOST-9", time.Now().UTC())
	if !errors.Is(err, store.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestDeviceStore_SetActive(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	ctx := context.Background()

	if err := ds.Insert(ctx, testDeviceRecord("DOOR-001")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := ds.SetActive(ctx, "DOOR-001", false, time.Now().UTC()); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	got, err := ds.Get(ctx, "DOOR-001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Active {
		t.Error("expected active=false after deactivation")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// List
// ═══════════════════════════════════════════════════════════════════════════

func TestDeviceStore_List_OrderedByID(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	ctx := context.Background()

	for _, id := range []string{"DOOR-002", "DOOR-001", "GATE-001"} {
		if err := ds.Insert(ctx, testDeviceRecord(id)); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}

	recs, err := ds.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(recs))
	}
	want := []string{"DOOR-001", "DOOR-002", "GATE-001"}
	for i, id := range want {
		if recs[i].DeviceID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, recs[i].DeviceID)
		}
	}
}
