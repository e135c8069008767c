package sensor

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yryz/ds18b20"
)

const w1DevicesRoot = "/sys/bus/w1/devices"

func NewHardwareBus(root string) *HardwareBus {
	if root == "" {
		root = w1DevicesRoot
	}

	return &HardwareBus{
		root:   root,
		slaves: ds18b20.Sensors,
	}
}

func (s *HardwareBus) String() string {
	return DRIVERTYPE_SYSFS
}

func (s *HardwareBus) DeviceCount() (int, error) {
	slog.Debug(">>HardwareBus.DeviceCount")
	defer slog.Debug("<<HardwareBus.DeviceCount")

	if err := s.refresh(); err != nil {
		return 0, err
	}

	return len(s.addrs), nil
}

// RequestTemperatures starts a simultaneous conversion on every bus master
// that supports it and re-reads the slave list so Address reflects the
// current bus. Without therm_bulk_read each read converts on demand.
func (s *HardwareBus) RequestTemperatures() error {
	slog.Debug(">>HardwareBus.RequestTemperatures")
	defer slog.Debug("<<HardwareBus.RequestTemperatures")

	masters, err := filepath.Glob(filepath.Join(s.root, "w1_bus_master*", "therm_bulk_read"))
	if err != nil {
		return err
	}

	for _, m := range masters {
		if err := os.WriteFile(m, []byte("trigger\n"), 0o200); err != nil {
			return fmt.Errorf("failed to trigger bulk read: %w", err)
		}
	}

	return s.refresh()
}

func (s *HardwareBus) Address(index int) (Address, error) {
	return addressAt(s.addrs, index)
}

func (s *HardwareBus) TemperatureC(addr Address) (float64, error) {
	t, err := ds18b20.Temperature(addr.SysfsID())
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", addr.SysfsID(), err)
	}

	return t, nil
}

// ParasitePower reports true when any device on the bus draws power from the
// data line. The kernel exposes this per slave as ext_power, 0 meaning
// parasite powered.
func (s *HardwareBus) ParasitePower() (bool, error) {
	for _, addr := range s.addrs {
		data, err := os.ReadFile(filepath.Join(s.root, addr.SysfsID(), "ext_power"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return false, err
		}

		if strings.TrimSpace(string(data)) == "0" {
			return true, nil
		}
	}

	return false, nil
}

func (s *HardwareBus) refresh() error {
	ids, err := s.slaves()
	if err != nil {
		return fmt.Errorf("failed to list w1 slaves: %w", err)
	}

	s.addrs = parseSysfsIDs(ids)

	return nil
}

func parseSysfsIDs(ids []string) []Address {
	addrs := make([]Address, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		addr, err := ParseSysfsID(id)
		if err != nil {
			slog.Debug("skipping w1 slave", "id", id, "error", err)
			continue
		}
		addrs = append(addrs, addr)
	}

	return addrs
}
