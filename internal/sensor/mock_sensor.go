package sensor

import (
	"errors"
	"fmt"
	"log/slog"
)

var errMockFailure = errors.New("simulated device failure")

func NewMockBus(devices []MockDeviceConfig) *MockBus {
	return &MockBus{devices: devices}
}

func (m *MockBus) String() string {
	return DRIVERTYPE_MOCK
}

func (m *MockBus) DeviceCount() (int, error) {
	return len(m.devices), nil
}

func (m *MockBus) RequestTemperatures() error {
	slog.Debug(">>MockBus.RequestTemperatures")
	defer slog.Debug("<<MockBus.RequestTemperatures")

	return nil
}

// Address resolves the configured address for index. Devices marked Fail do
// not resolve.
func (m *MockBus) Address(index int) (Address, error) {
	if index < 0 || index >= len(m.devices) {
		return Address{}, fmt.Errorf("index %d: %w", index, ErrAddressNotFound)
	}

	d := m.devices[index]
	if d.Fail {
		return Address{}, fmt.Errorf("index %d: %w", index, errMockFailure)
	}

	return ParseAddress(d.Address)
}

func (m *MockBus) TemperatureC(addr Address) (float64, error) {
	for _, d := range m.devices {
		a, err := ParseAddress(d.Address)
		if err != nil || a != addr {
			continue
		}

		return d.TemperatureC, nil
	}

	return 0, fmt.Errorf("%s: %w", addr, ErrAddressNotFound)
}

func (m *MockBus) ParasitePower() (bool, error) {
	return false, nil
}
