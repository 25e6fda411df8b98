package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDeviceExists   = errors.New("device already exists")
	ErrDeviceNotFound = errors.New("device not found")
)

type DeviceRecord struct {
	DeviceID       string // upper-cased by the registry before it reaches a store
	Name           string
	Location       string
	Role           string
	Address        string
	Port           int
	Active         bool
	LastHeartbeat  *time.Time
	TimeoutMs      int
	RetryAttempts  int
	LoggingEnabled bool
	Owner          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type DeviceStore interface {
	// Insert creates the device row.  Returns ErrDeviceExists if the id is
	// already registered.
	Insert(ctx context.Context, rec DeviceRecord) error

	Get(ctx context.Context, deviceID string) (DeviceRecord, error)
	List(ctx context.Context) ([]DeviceRecord, error)

	// SetLastHeartbeat is a last-writer-wins single-field update.
	SetLastHeartbeat(ctx context.Context, deviceID string, t time.Time) error

	// SetActive flips the operator kill switch.  Devices are never deleted.
	SetActive(ctx context.Context, deviceID string, active bool, t time.Time) error
}
