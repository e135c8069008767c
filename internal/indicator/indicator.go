package indicator

import (
	"log/slog"

	"github.com/stianeikeland/go-rpio/v4"
)

type (
	Config struct {
		Enabled bool `json:"enabled" yaml:"enabled"`
		Pin     int  `json:"pin" yaml:"pin"`
		// NormallyOn means the LED lights when the pin is driven low.
		NormallyOn bool `json:"normally_on" yaml:"normally_on"`
	}

	gpio interface {
		Open() error
		Close() error
		Write(pin int, high bool)
	}

	// Indicator drives a status LED: lit while a cycle is running.
	Indicator struct {
		config Config
		gpio   gpio
	}

	rpioGPIO struct{}
)

func New(config Config) *Indicator {
	return &Indicator{
		config: config,
		gpio:   rpioGPIO{},
	}
}

func (ind *Indicator) On() error {
	return ind.set(true)
}

func (ind *Indicator) Off() error {
	return ind.set(false)
}

func (ind *Indicator) set(on bool) error {
	if ind == nil || !ind.config.Enabled {
		return nil
	}

	slog.Debug(">>indicator.set", "pin", ind.config.Pin, "on", on)
	defer slog.Debug("<<indicator.set")

	if err := ind.gpio.Open(); err != nil {
		return err
	}
	defer ind.gpio.Close()

	// if the LED is normally on, the pin is low when it is lit
	high := on
	if ind.config.NormallyOn {
		high = !on
	}

	ind.gpio.Write(ind.config.Pin, high)

	return nil
}

func (rpioGPIO) Open() error {
	return rpio.Open()
}

func (rpioGPIO) Close() error {
	return rpio.Close()
}

func (rpioGPIO) Write(pin int, high bool) {
	p := rpio.Pin(pin)
	p.Output()

	if high {
		p.High()
	} else {
		p.Low()
	}
}
