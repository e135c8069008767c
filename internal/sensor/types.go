package sensor

import "errors"

const (
	DRIVERTYPE_SYSFS   string = "sysfs"
	DRIVERTYPE_NETLINK string = "netlink"
	DRIVERTYPE_MOCK    string = "mock"

	// DeviceDisconnectedC is the value a DS18B20 driver reports when the
	// scratchpad could not be read.
	DeviceDisconnectedC float64 = -127

	AddressLength = 8
)

var (
	ErrAddressNotFound    = errors.New("device address not found")
	ErrDeviceDisconnected = errors.New("device disconnected")
)

type (
	// Address is a one-wire ROM code: family code, six serial bytes (least
	// significant first) and the CRC8 of the first seven bytes.
	Address [AddressLength]byte

	// Reading is one slot of a read cycle. When Valid is false the address
	// and temperature are always zero.
	Reading struct {
		Index        int     `json:"index"`
		Address      Address `json:"address"`
		Valid        bool    `json:"valid"`
		TemperatureC float64 `json:"temperature_c"`
	}

	BusConfig struct {
		Driver         string             `json:"driver" yaml:"driver"`
		NetlinkBus     uint32             `json:"netlink_bus" yaml:"netlink_bus"`
		ResolutionBits int                `json:"resolution_bits" yaml:"resolution_bits"`
		MockDevices    []MockDeviceConfig `json:"mock_devices" yaml:"mock_devices"`
	}

	DeviceConfig struct {
		Address                  string  `json:"address" yaml:"address"`
		Name                     string  `json:"name" yaml:"name"`
		Description              string  `json:"description" yaml:"description"`
		CalibrationOffsetCelsius float64 `json:"calibration_offset_celsius" yaml:"calibration_offset_celsius"`
	}

	MockDeviceConfig struct {
		Address      string  `json:"address" yaml:"address"`
		TemperatureC float64 `json:"temperature_c" yaml:"temperature_c"`
		Fail         bool    `json:"fail" yaml:"fail"`
	}

	// Bus is the one-wire bus driver the read cycle depends on.
	Bus interface {
		String() string
		DeviceCount() (int, error)
		RequestTemperatures() error
		Address(index int) (Address, error)
		TemperatureC(addr Address) (float64, error)
	}

	// PowerReporter is implemented by drivers that can tell whether the
	// devices run on parasite power.
	PowerReporter interface {
		ParasitePower() (bool, error)
	}

	// Roster is the device count and enumeration order established at startup.
	Roster struct {
		bus         Bus
		count       int
		calibration map[Address]float64
	}

	// HardwareBus reads the w1_therm sysfs tree.
	HardwareBus struct {
		root   string
		slaves func() ([]string, error)
		addrs  []Address
	}

	MockBus struct {
		devices []MockDeviceConfig
	}
)
