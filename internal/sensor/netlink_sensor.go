package sensor

import (
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/onewire"
	"periph.io/x/devices/v3/ds18b20"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/netlink"
)

const defaultResolutionBits = 12

// NetlinkBus talks to the kernel w1 netlink connector, which gives direct
// access to the bus without the w1_therm driver.
type NetlinkBus struct {
	bus            *netlink.OneWire
	resolutionBits int

	mu    sync.Mutex
	addrs []Address
	devs  map[Address]*ds18b20.Dev
}

func NewNetlinkBus(netlinkAddr uint32, resolutionBits int) (*NetlinkBus, error) {
	slog.Debug(">>NewNetlinkBus", "netlink_bus", netlinkAddr)
	defer slog.Debug("<<NewNetlinkBus")

	if resolutionBits == 0 {
		resolutionBits = defaultResolutionBits
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}

	bus, err := netlink.New(netlinkAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to open w1 netlink bus %d: %w", netlinkAddr, err)
	}

	return &NetlinkBus{
		bus:            bus,
		resolutionBits: resolutionBits,
		devs:           make(map[Address]*ds18b20.Dev),
	}, nil
}

func (n *NetlinkBus) String() string {
	return DRIVERTYPE_NETLINK
}

func (n *NetlinkBus) DeviceCount() (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	found, err := n.bus.Search(false)
	if err != nil {
		return 0, fmt.Errorf("failed to search bus: %w", err)
	}

	n.addrs = make([]Address, 0, len(found))
	for _, a := range found {
		n.addrs = append(n.addrs, FromOneWire(a))
	}

	return len(n.addrs), nil
}

func (n *NetlinkBus) RequestTemperatures() error {
	if err := ds18b20.ConvertAll(n.bus, n.resolutionBits); err != nil {
		return fmt.Errorf("failed to convert: %w", err)
	}

	return nil
}

func (n *NetlinkBus) Address(index int) (Address, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return addressAt(n.addrs, index)
}

// TemperatureC returns the result of the last conversion.
func (n *NetlinkBus) TemperatureC(addr Address) (float64, error) {
	dev, err := n.device(addr)
	if err != nil {
		return 0, err
	}

	t, err := dev.LastTemp()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", addr, err)
	}

	return t.Celsius(), nil
}

func (n *NetlinkBus) Close() error {
	return n.bus.Close()
}

func (n *NetlinkBus) device(addr Address) (*ds18b20.Dev, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if dev, ok := n.devs[addr]; ok {
		return dev, nil
	}

	if onewire.CalcCRC(addr[:7]) != addr[7] {
		return nil, fmt.Errorf("address %s has an invalid crc", addr)
	}

	dev, err := ds18b20.New(n.bus, addr.OneWire(), n.resolutionBits)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", addr, err)
	}
	n.devs[addr] = dev

	return dev, nil
}
