// Package config loads the board description: which GPIO lines drive the
// indicator, where the converter is attached and which threshold table the
// board was calibrated with.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/battery-alarm/internal/adc"
	"github.com/sweeney/battery-alarm/internal/gpio"
	"github.com/sweeney/battery-alarm/internal/logic"
)

// Threshold table names.
const (
	TableCalibrated = "calibrated"
	TableNominal    = "nominal"
)

// Config represents the board configuration.
type Config struct {
	GPIO       GPIOConfig       `yaml:"gpio"`
	Converter  ConverterConfig  `yaml:"converter"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

// GPIOConfig contains the output line configuration.
type GPIOConfig struct {
	Chip      string     `yaml:"chip"`
	ActiveLow bool       `yaml:"active_low"` // LEDs lit by driving the line low
	Pins      PinsConfig `yaml:"pins"`
}

// PinsConfig maps each output to a line offset on the chip.
type PinsConfig struct {
	Green int `yaml:"green"`
	Blue  int `yaml:"blue"`
	Red   int `yaml:"red"`
	Wave  int `yaml:"wave"`
}

// ConverterConfig contains the converter serial line configuration.
type ConverterConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ThresholdsConfig selects a compiled-in threshold table.
type ThresholdsConfig struct {
	Table string `yaml:"table"`
}

// Default returns the configuration of the reference board.
func Default() *Config {
	return &Config{
		GPIO: GPIOConfig{
			Chip:      "gpiochip0",
			ActiveLow: true,
			Pins: PinsConfig{
				Green: gpio.DefaultPinGreen,
				Blue:  gpio.DefaultPinBlue,
				Red:   gpio.DefaultPinRed,
				Wave:  gpio.DefaultPinWave,
			},
		},
		Converter: ConverterConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: adc.DefaultBaudRate,
		},
		Thresholds: ThresholdsConfig{
			Table: TableCalibrated,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if _, err := cfg.Table(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Pins returns the GPIO line offsets.
func (c *Config) Pins() gpio.Pins {
	return gpio.Pins{
		Green: c.GPIO.Pins.Green,
		Blue:  c.GPIO.Pins.Blue,
		Red:   c.GPIO.Pins.Red,
		Wave:  c.GPIO.Pins.Wave,
	}
}

// Table returns the threshold table named by the configuration.
func (c *Config) Table() (logic.Thresholds, error) {
	switch c.Thresholds.Table {
	case TableCalibrated:
		return logic.Calibrated, nil
	case TableNominal:
		return logic.Nominal, nil
	}
	return logic.Thresholds{}, fmt.Errorf("unknown threshold table %q (want %q or %q)",
		c.Thresholds.Table, TableCalibrated, TableNominal)
}

// ensureDefaults fills in fields left empty by the file. Line offset 0 is
// treated as unset.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}
	if c.GPIO.Pins.Green == 0 {
		c.GPIO.Pins.Green = def.GPIO.Pins.Green
	}
	if c.GPIO.Pins.Blue == 0 {
		c.GPIO.Pins.Blue = def.GPIO.Pins.Blue
	}
	if c.GPIO.Pins.Red == 0 {
		c.GPIO.Pins.Red = def.GPIO.Pins.Red
	}
	if c.GPIO.Pins.Wave == 0 {
		c.GPIO.Pins.Wave = def.GPIO.Pins.Wave
	}

	if c.Converter.Port == "" {
		c.Converter.Port = def.Converter.Port
	}
	if c.Converter.BaudRate == 0 {
		c.Converter.BaudRate = def.Converter.BaudRate
	}

	if c.Thresholds.Table == "" {
		c.Thresholds.Table = def.Thresholds.Table
	}
}
