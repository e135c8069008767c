package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/KyleBrandon/w1-reporter/internal/scheduler"
	"github.com/KyleBrandon/w1-reporter/internal/sensor"
)

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate the config.
func Validate(cfg *Config) error {
	// api
	if cfg.API.Host == "" {
		return fmt.Errorf("api: host is required")
	}
	if strings.ContainsAny(cfg.API.Host, " /\r\n") {
		return fmt.Errorf("api: invalid host %q", cfg.API.Host)
	}
	if strings.Contains(cfg.API.Host, ":") && net.ParseIP(cfg.API.Host) == nil {
		return fmt.Errorf("api: host %q must not carry a port, use api.port", cfg.API.Host)
	}
	if cfg.API.Port < 0 || cfg.API.Port > 65535 {
		return fmt.Errorf("api: port %d out of range", cfg.API.Port)
	}
	if cfg.API.Path != "" && !strings.HasPrefix(cfg.API.Path, "/") {
		return fmt.Errorf("api: path %q must start with /", cfg.API.Path)
	}
	if strings.ContainsAny(cfg.API.Path+cfg.API.Credential+cfg.API.UserAgent, "\r\n") {
		return fmt.Errorf("api: header values must not contain line breaks")
	}
	if cfg.API.DialTimeoutMs < 0 || cfg.API.IdleTimeoutMs < 0 {
		return fmt.Errorf("api: timeouts must not be negative")
	}

	// schedule
	switch cfg.Schedule.Mode {
	case "", scheduler.MODE_DELAY:
		if cfg.Schedule.DelayMs < 0 {
			return fmt.Errorf("schedule: delay_ms must not be negative")
		}
	case scheduler.MODE_INTERVAL:
		if cfg.Schedule.IntervalSeconds <= 0 {
			return fmt.Errorf("schedule: interval_seconds must be > 0 in interval mode")
		}
	case scheduler.MODE_CRON:
		if cfg.Schedule.Cron == "" {
			return fmt.Errorf("schedule: cron expression is required in cron mode")
		}
	default:
		return fmt.Errorf("schedule: unknown mode %q", cfg.Schedule.Mode)
	}

	// bus
	switch cfg.Bus.Driver {
	case "", sensor.DRIVERTYPE_SYSFS, sensor.DRIVERTYPE_NETLINK, sensor.DRIVERTYPE_MOCK:
	default:
		return fmt.Errorf("bus: unknown driver %q", cfg.Bus.Driver)
	}
	if r := cfg.Bus.ResolutionBits; r != 0 && (r < 9 || r > 12) {
		return fmt.Errorf("bus: resolution_bits must be between 9 and 12")
	}
	for i, d := range cfg.Bus.MockDevices {
		if _, err := sensor.ParseAddress(d.Address); err != nil {
			return fmt.Errorf("bus: mock_devices[%d]: %w", i, err)
		}
	}

	// devices
	seen := make(map[sensor.Address]string)
	for _, d := range cfg.Devices {
		addr, err := sensor.ParseAddress(d.Address)
		if err != nil {
			return fmt.Errorf("device %q: %w", d.Name, err)
		}
		if prev, exists := seen[addr]; exists {
			return fmt.Errorf("device %q: address %s already used by %q", d.Name, addr, prev)
		}
		seen[addr] = d.Name
	}

	// mqtt is opt-in
	if cfg.MQTT.Broker != "" && strings.ContainsAny(cfg.MQTT.Topic, "#+") {
		return fmt.Errorf("mqtt: topic %q must not contain wildcards", cfg.MQTT.Topic)
	}

	if cfg.History.RetentionDays < 0 {
		return fmt.Errorf("history: retention_days must not be negative")
	}

	return nil
}
