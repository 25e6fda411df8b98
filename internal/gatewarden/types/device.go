package types

import "time"

type DeviceRole string

const (
	RoleEntry DeviceRole = "entry"
	RoleExit  DeviceRole = "exit"
	RoleBoth  DeviceRole = "both"
)

// DeviceStatus is derived at read time from active + lastHeartbeat.
// It is never persisted.
type DeviceStatus string

const (
	DeviceInactive DeviceStatus = "inactive"
	DeviceOnline   DeviceStatus = "online"
	DeviceOffline  DeviceStatus = "offline"
)

type DeviceSettings struct {
	TimeoutMs      int  `json:"timeout_ms"`
	RetryAttempts  int  `json:"retry_attempts"`
	LoggingEnabled bool `json:"logging_enabled"`
}

// DeviceSettingsSpec carries optional overrides at registration time.
// Unset fields fall back to the registry defaults.
type DeviceSettingsSpec struct {
	TimeoutMs      *int  `json:"timeout_ms,omitempty"`
	RetryAttempts  *int  `json:"retry_attempts,omitempty"`
	LoggingEnabled *bool `json:"logging_enabled,omitempty"`
}

type RegisterDeviceRequest struct {
	DeviceID string              `json:"device_id"`
	Name     string              `json:"name"`
	Location string              `json:"location,omitempty"`
	Role     string              `json:"role"`
	Address  string              `json:"address"`
	Port     int                 `json:"port"`
	Owner    string              `json:"owner,omitempty"`
	Settings *DeviceSettingsSpec `json:"settings,omitempty"`
}

type Device struct {
	DeviceID      string         `json:"device_id"`
	Name          string         `json:"name"`
	Location      string         `json:"location,omitempty"`
	Role          DeviceRole     `json:"role"`
	Address       string         `json:"address"`
	Port          int            `json:"port"`
	Active        bool           `json:"active"`
	LastHeartbeat *time.Time     `json:"last_heartbeat,omitempty"`
	Settings      DeviceSettings `json:"settings"`
	Owner         string         `json:"owner,omitempty"`
	Status        DeviceStatus   `json:"status"` // derived, see DeviceStatus
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
