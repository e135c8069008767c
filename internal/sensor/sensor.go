package sensor

import (
	"fmt"
	"log/slog"
)

// NewBus opens the driver named in the bus configuration. useMock forces the
// mock driver regardless of the configured one.
func NewBus(cfg BusConfig, useMock bool) (Bus, error) {
	slog.Debug(">>NewBus", "driver", cfg.Driver, "use_mock", useMock)
	defer slog.Debug("<<NewBus")

	if useMock {
		return NewMockBus(cfg.MockDevices), nil
	}

	switch cfg.Driver {
	case "", DRIVERTYPE_SYSFS:
		return NewHardwareBus(""), nil
	case DRIVERTYPE_NETLINK:
		return NewNetlinkBus(cfg.NetlinkBus, cfg.ResolutionBits)
	case DRIVERTYPE_MOCK:
		return NewMockBus(cfg.MockDevices), nil
	}

	return nil, fmt.Errorf("unknown bus driver %q", cfg.Driver)
}

// NewRoster counts the devices on the bus once. The count is not refreshed
// for the lifetime of the process.
func NewRoster(bus Bus, devices []DeviceConfig) (*Roster, error) {
	slog.Debug(">>NewRoster")
	defer slog.Debug("<<NewRoster")

	calibration := make(map[Address]float64, len(devices))
	for _, d := range devices {
		addr, err := ParseAddress(d.Address)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", d.Name, err)
		}
		calibration[addr] = d.CalibrationOffsetCelsius
	}

	slog.Info("locating devices", "driver", bus.String())
	count, err := bus.DeviceCount()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate bus: %w", err)
	}
	slog.Info("found devices", "count", count)

	if pr, ok := bus.(PowerReporter); ok {
		parasite, err := pr.ParasitePower()
		if err != nil {
			slog.Warn("unable to determine parasite power", "error", err)
		} else if parasite {
			slog.Info("parasite power is ON")
		} else {
			slog.Info("parasite power is OFF")
		}
	}

	return &Roster{
		bus:         bus,
		count:       count,
		calibration: calibration,
	}, nil
}

func (r *Roster) Count() int {
	return r.count
}

func (r *Roster) Bus() Bus {
	return r.bus
}

// Read allocates the slots for one cycle and fills them.
func (r *Roster) Read() []Reading {
	readings := make([]Reading, r.count)
	ReadSensors(r.bus, r.calibration, readings)

	return readings
}

// ReadSensors fills every slot in readings. A slot that cannot be resolved or
// read is left invalid with a zero address and temperature; the remaining
// slots are still processed.
func ReadSensors(bus Bus, calibration map[Address]float64, readings []Reading) {
	slog.Debug(">>ReadSensors", "count", len(readings))
	defer slog.Debug("<<ReadSensors")

	slog.Info("requesting temperatures")
	if err := bus.RequestTemperatures(); err != nil {
		slog.Error("failed to request temperatures", "error", err)
	}

	for i := range readings {
		readings[i] = readDevice(bus, calibration, i)
	}
}

func readDevice(bus Bus, calibration map[Address]float64, index int) Reading {
	invalid := Reading{Index: index}

	addr, err := bus.Address(index)
	if err != nil {
		slog.Warn("unable to find address for device", "index", index, "error", err)
		return invalid
	}

	t, err := bus.TemperatureC(addr)
	if err == nil && t == DeviceDisconnectedC {
		err = ErrDeviceDisconnected
	}
	if err != nil {
		slog.Warn("unable to read from device", "index", index, "address", addr.Verbose(), "error", err)
		return invalid
	}

	t += calibration[addr]
	slog.Info("read temperature", "index", index, "address", addr.Verbose(), "temperature_c", t)

	return Reading{
		Index:        index,
		Address:      addr,
		Valid:        true,
		TemperatureC: t,
	}
}

// ValidCount returns the number of valid slots.
func ValidCount(readings []Reading) int {
	n := 0
	for _, r := range readings {
		if r.Valid {
			n++
		}
	}

	return n
}

func addressAt(addrs []Address, index int) (Address, error) {
	if index < 0 || index >= len(addrs) {
		return Address{}, fmt.Errorf("index %d: %w", index, ErrAddressNotFound)
	}

	return addrs[index], nil
}
