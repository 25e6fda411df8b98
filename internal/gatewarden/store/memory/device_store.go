package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gatewarden/server/internal/gatewarden/store"
)

// DeviceStore is an in-memory DeviceStore for tests and dev environments.
type DeviceStore struct {
	mu      sync.RWMutex
	devices map[string]store.DeviceRecord
}

func NewDeviceStore() *DeviceStore {
	return &DeviceStore{devices: make(map[string]store.DeviceRecord)}
}

func (s *DeviceStore) Insert(_ context.Context, rec store.DeviceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[rec.DeviceID]; ok {
		return store.ErrDeviceExists
	}
	s.devices[rec.DeviceID] = rec
	return nil
}

func (s *DeviceStore) Get(_ context.Context, deviceID string) (store.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.devices[deviceID]
	if !ok {
		return store.DeviceRecord{}, store.ErrDeviceNotFound
	}
	return rec, nil
}

func (s *DeviceStore) List(_ context.Context) ([]store.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.DeviceRecord, 0, len(s.devices))
	for _, rec := range s.devices {
		out = append(out, rec)
	}
	return out, nil
}

func (s *DeviceStore) SetLastHeartbeat(_ context.Context, deviceID string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.devices[deviceID]
	if !ok {
		return store.ErrDeviceNotFound
	}
	rec.LastHeartbeat = &t
	rec.UpdatedAt = t
	s.devices[deviceID] = rec
	return nil
}

func (s *DeviceStore) SetActive(_ context.Context, deviceID string, active bool, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.devices[deviceID]
	if !ok {
		return store.ErrDeviceNotFound
	}
	rec.Active = active
	rec.UpdatedAt = t
	s.devices[deviceID] = rec
	return nil
}
