package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gatewarden/server/internal/gatewarden/types"
)

// DeviceMonitor periodically sweeps the registry and logs devices whose
// derived status has fallen to offline.  Status itself is always computed
// lazily at read time; the sweep is a monitoring view only, and an interval
// of 0 disables it entirely.
type DeviceMonitor struct {
	registry *DeviceRegistry
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// MonitorConfig holds the parameters for NewDeviceMonitor.
type MonitorConfig struct {
	// IntervalSeconds is how often the sweep runs.  0 disables the monitor.
	IntervalSeconds int
}

// NewDeviceMonitor creates a monitor but does not start it.
// Call Start to begin the background loop.
func NewDeviceMonitor(registry *DeviceRegistry, cfg MonitorConfig, logger *zap.Logger) *DeviceMonitor {
	return &DeviceMonitor{
		registry: registry,
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the background sweep loop.  It runs an immediate sweep on
// startup, then repeats on the configured interval.  The loop exits when
// ctx is cancelled or Stop is called.
func (m *DeviceMonitor) Start(ctx context.Context) {
	if m.interval <= 0 {
		m.logger.Info("device monitor disabled (interval=0)")
		close(m.done)
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)

	go m.loop(ctx)

	m.logger.Info("device monitor started",
		zap.Duration("interval", m.interval))
}

// Stop signals the monitor to exit and waits for it to finish.
func (m *DeviceMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	<-m.done
}

func (m *DeviceMonitor) loop(ctx context.Context) {
	defer close(m.done)

	m.sweep(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *DeviceMonitor) sweep(ctx context.Context) {
	devices, err := m.registry.List(ctx)
	if err != nil {
		m.logger.Error("device sweep error", zap.Error(err))
		return
	}

	offline := 0
	for _, d := range devices {
		if d.Status != types.DeviceOffline {
			continue
		}
		offline++
		fields := []zap.Field{zap.String("device_id", d.DeviceID)}
		if d.LastHeartbeat != nil {
			fields = append(fields, zap.Time("last_heartbeat", *d.LastHeartbeat))
		}
		m.logger.Warn("device offline", fields...)
	}

	m.logger.Debug("device sweep complete",
		zap.Int("devices", len(devices)),
		zap.Int("offline", offline))
}
