package service

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

// OnlineWindow is how recently a device must have heartbeated to count as
// online.  The boundary is inclusive: exactly 5 minutes ago is still online.
const OnlineWindow = 5 * time.Minute

const (
	defaultTimeoutMs     = 5000
	defaultRetryAttempts = 3
)

type DeviceRegistry struct {
	store  store.DeviceStore
	logger *zap.Logger
}

func NewDeviceRegistry(st store.DeviceStore, logger *zap.Logger) *DeviceRegistry {
	return &DeviceRegistry{store: st, logger: logger}
}

// Register validates and stores a new device.  Device ids are normalized to
// upper case; a duplicate id fails with ConflictError, malformed input with
// ValidationError.
func (r *DeviceRegistry) Register(ctx context.Context, req types.RegisterDeviceRequest) (types.Device, error) {
	deviceID := NormalizeDeviceID(req.DeviceID)
	if deviceID == "" {
		return types.Device{}, &ValidationError{Field: "device_id", Reason: "required"}
	}
	if strings.TrimSpace(req.Name) == "" {
		return types.Device{}, &ValidationError{Field: "name", Reason: "required"}
	}

	role := types.DeviceRole(strings.TrimSpace(req.Role))
	switch role {
	case types.RoleEntry, types.RoleExit, types.RoleBoth:
	default:
		return types.Device{}, &ValidationError{Field: "role", Reason: "must be entry, exit or both"}
	}

	if err := validateIPv4(req.Address); err != nil {
		return types.Device{}, err
	}
	if req.Port < 1 || req.Port > 65535 {
		return types.Device{}, &ValidationError{Field: "port", Reason: "must be within 1-65535"}
	}

	settings, err := resolveSettings(req.Settings)
	if err != nil {
		return types.Device{}, err
	}

	now := time.Now().UTC()
	rec := store.DeviceRecord{
		DeviceID:       deviceID,
		Name:           strings.TrimSpace(req.Name),
		Location:       strings.TrimSpace(req.Location),
		Role:           string(role),
		Address:        strings.TrimSpace(req.Address),
		Port:           req.Port,
		Active:         true,
		TimeoutMs:      settings.TimeoutMs,
		RetryAttempts:  settings.RetryAttempts,
		LoggingEnabled: settings.LoggingEnabled,
		Owner:          strings.TrimSpace(req.Owner),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := r.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDeviceExists) {
			return types.Device{}, &ConflictError{DeviceID: deviceID}
		}
		return types.Device{}, err
	}

	r.logger.Info("device registered",
		zap.String("device_id", deviceID),
		zap.String("role", string(role)),
		zap.String("address", rec.Address))

	return deviceToWire(rec, now), nil
}

// Heartbeat records a liveness signal: last_heartbeat = now, last writer
// wins.  Unknown devices fail with NotFoundError.  A deactivated device may
// still heartbeat; the kill switch only affects derived status.
func (r *DeviceRegistry) Heartbeat(ctx context.Context, deviceID string) error {
	deviceID = NormalizeDeviceID(deviceID)
	if deviceID == "" {
		return &NotFoundError{DeviceID: deviceID}
	}

	err := r.store.SetLastHeartbeat(ctx, deviceID, time.Now().UTC())
	if errors.Is(err, store.ErrDeviceNotFound) {
		return &NotFoundError{DeviceID: deviceID}
	}
	return err
}

// Status evaluates the device's derived status at the current instant.
func (r *DeviceRegistry) Status(ctx context.Context, deviceID string) (types.DeviceStatus, error) {
	return r.StatusAt(ctx, deviceID, time.Now().UTC())
}

// StatusAt takes the evaluation instant explicitly so the derivation is a
// pure function of stored state and the supplied clock.
func (r *DeviceRegistry) StatusAt(ctx context.Context, deviceID string, now time.Time) (types.DeviceStatus, error) {
	rec, err := r.get(ctx, deviceID)
	if err != nil {
		return "", err
	}
	return StatusOf(rec.Active, rec.LastHeartbeat, now), nil
}

// StatusOf derives inactive/online/offline.  The kill switch dominates:
// an inactive device is inactive regardless of heartbeat recency.
func StatusOf(active bool, lastHeartbeat *time.Time, now time.Time) types.DeviceStatus {
	if !active {
		return types.DeviceInactive
	}
	if lastHeartbeat == nil {
		return types.DeviceOffline
	}
	if now.Sub(*lastHeartbeat) <= OnlineWindow {
		return types.DeviceOnline
	}
	return types.DeviceOffline
}

func (r *DeviceRegistry) Get(ctx context.Context, deviceID string) (types.Device, error) {
	rec, err := r.get(ctx, deviceID)
	if err != nil {
		return types.Device{}, err
	}
	return deviceToWire(rec, time.Now().UTC()), nil
}

func (r *DeviceRegistry) List(ctx context.Context) ([]types.Device, error) {
	recs, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]types.Device, 0, len(recs))
	for _, rec := range recs {
		out = append(out, deviceToWire(rec, now))
	}
	return out, nil
}

// Deactivate flips the operator kill switch.  Devices are never deleted.
func (r *DeviceRegistry) Deactivate(ctx context.Context, deviceID string) (types.Device, error) {
	deviceID = NormalizeDeviceID(deviceID)
	now := time.Now().UTC()

	err := r.store.SetActive(ctx, deviceID, false, now)
	if errors.Is(err, store.ErrDeviceNotFound) {
		return types.Device{}, &NotFoundError{DeviceID: deviceID}
	}
	if err != nil {
		return types.Device{}, err
	}

	r.logger.Info("device deactivated", zap.String("device_id", deviceID))
	return r.Get(ctx, deviceID)
}

func (r *DeviceRegistry) get(ctx context.Context, deviceID string) (store.DeviceRecord, error) {
	rec, err := r.store.Get(ctx, NormalizeDeviceID(deviceID))
	if errors.Is(err, store.ErrDeviceNotFound) {
		return store.DeviceRecord{}, &NotFoundError{DeviceID: NormalizeDeviceID(deviceID)}
	}
	return rec, err
}

func NormalizeDeviceID(deviceID string) string {
	return strings.ToUpper(strings.TrimSpace(deviceID))
}

func validateIPv4(address string) error {
	addr, err := netip.ParseAddr(strings.TrimSpace(address))
	if err != nil || !addr.Is4() {
		return &ValidationError{Field: "address", Reason: "must be an IPv4 dotted-quad"}
	}
	return nil
}

func resolveSettings(spec *types.DeviceSettingsSpec) (types.DeviceSettings, error) {
	settings := types.DeviceSettings{
		TimeoutMs:      defaultTimeoutMs,
		RetryAttempts:  defaultRetryAttempts,
		LoggingEnabled: true,
	}
	if spec == nil {
		return settings, nil
	}
	if spec.TimeoutMs != nil {
		if *spec.TimeoutMs <= 0 {
			return settings, &ValidationError{Field: "settings.timeout_ms", Reason: "must be positive"}
		}
		settings.TimeoutMs = *spec.TimeoutMs
	}
	if spec.RetryAttempts != nil {
		if *spec.RetryAttempts < 0 {
			return settings, &ValidationError{Field: "settings.retry_attempts", Reason: "must not be negative"}
		}
		settings.RetryAttempts = *spec.RetryAttempts
	}
	if spec.LoggingEnabled != nil {
		settings.LoggingEnabled = *spec.LoggingEnabled
	}
	return settings, nil
}

func deviceToWire(rec store.DeviceRecord, now time.Time) types.Device {
	return types.Device{
		DeviceID:      rec.DeviceID,
		Name:          rec.Name,
		Location:      rec.Location,
		Role:          types.DeviceRole(rec.Role),
		Address:       rec.Address,
		Port:          rec.Port,
		Active:        rec.Active,
		LastHeartbeat: rec.LastHeartbeat,
		Settings: types.DeviceSettings{
			TimeoutMs:      rec.TimeoutMs,
			RetryAttempts:  rec.RetryAttempts,
			LoggingEnabled: rec.LoggingEnabled,
		},
		Owner:     rec.Owner,
		Status:    StatusOf(rec.Active, rec.LastHeartbeat, now),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
