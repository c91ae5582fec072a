// Package simconfig loads the top-level simulation configuration: which
// organization and timing preset to instantiate, which address mapper to
// use, the controller's write-mode watermarks, and the clock ratio.
// Grounded on timing/latency/config.go's JSON Load/Save/Validate/Clone
// shape.
package simconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/hbm3pim/dram"
	"github.com/sarchlab/hbm3pim/mapper"
)

// MapperKind selects the address-mapping scheme.
type MapperKind string

const (
	MapperLinear MapperKind = "linear"
	MapperCustom MapperKind = "custom"
)

// Config ties together everything needed to build a memory system.
type Config struct {
	// Organization names an entry in dram.OrgPresets, e.g. "HBM3_8Gb_2R".
	Organization string `json:"organization"`

	// Timing names an entry in dram.TimingPresets, e.g. "HBM3_4.8Gbps".
	Timing string `json:"timing"`

	// Mapper selects the address-mapping scheme.
	Mapper MapperKind `json:"mapper"`

	// ChannelWidthBits is the physical data bus width per channel, used to
	// size the transaction-offset bits the mapper strips off the bottom of
	// the address. Default: 32.
	ChannelWidthBits int `json:"channel_width_bits"`

	// ClockRatio is the ratio of frontend clock ticks to memory-system
	// clock ticks. Default: 1.
	ClockRatio uint `json:"clock_ratio"`

	// WrLowWatermark and WrHighWatermark control each controller's
	// write-mode hysteresis. Defaults: 0.2 and 0.8.
	WrLowWatermark  float64 `json:"wr_low_watermark"`
	WrHighWatermark float64 `json:"wr_high_watermark"`

	// ReadBufferSize, WriteBufferSize, and PIMBufferSize override each
	// controller's per-type buffer capacity. Default: 64.
	ReadBufferSize  int `json:"read_buffer_size"`
	WriteBufferSize int `json:"write_buffer_size"`
	PIMBufferSize   int `json:"pim_buffer_size"`
}

// Default returns a Config with HBM3-PIM baseline defaults.
func Default() *Config {
	return &Config{
		Organization:     "HBM3_8Gb_2R",
		Timing:           "HBM3_4.8Gbps",
		Mapper:           MapperLinear,
		ChannelWidthBits: 32,
		ClockRatio:       1,
		WrLowWatermark:   0.2,
		WrHighWatermark:  0.8,
		ReadBufferSize:   64,
		WriteBufferSize:  64,
		PIMBufferSize:    64,
	}
}

// Load reads a Config from a JSON file, filling any field absent from the
// file with its default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("simconfig: failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("simconfig: failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("simconfig: failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("simconfig: failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration names real presets and carries
// sane numeric values.
func (c *Config) Validate() error {
	if _, err := dram.LookupOrg(c.Organization); err != nil {
		return fmt.Errorf("simconfig: %w", err)
	}
	if _, err := dram.LookupTiming(c.Timing); err != nil {
		return fmt.Errorf("simconfig: %w", err)
	}
	switch c.Mapper {
	case MapperLinear, MapperCustom:
	default:
		return fmt.Errorf("simconfig: unknown mapper %q", c.Mapper)
	}
	if c.ChannelWidthBits <= 0 {
		return fmt.Errorf("simconfig: channel_width_bits must be > 0")
	}
	if c.ClockRatio == 0 {
		return fmt.Errorf("simconfig: clock_ratio must be > 0")
	}
	if c.WrLowWatermark < 0 || c.WrHighWatermark > 1 || c.WrLowWatermark >= c.WrHighWatermark {
		return fmt.Errorf("simconfig: watermarks must satisfy 0 <= low < high <= 1")
	}
	if c.ReadBufferSize <= 0 || c.WriteBufferSize <= 0 || c.PIMBufferSize <= 0 {
		return fmt.Errorf("simconfig: buffer sizes must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// BuildDevice resolves the configured organization and timing presets into
// a derived, validated dram.Device.
func (c *Config) BuildDevice() (*dram.Device, error) {
	org, err := dram.LookupOrg(c.Organization)
	if err != nil {
		return nil, err
	}
	timing, err := dram.LookupTiming(c.Timing)
	if err != nil {
		return nil, err
	}
	timing, err = dram.DeriveTiming(timing, org)
	if err != nil {
		return nil, err
	}
	return dram.NewDevice(org, timing)
}

// BuildMapper resolves the configured mapper kind into a mapper.Mapper for
// the given organization.
func (c *Config) BuildMapper(org dram.Organization) (mapper.Mapper, error) {
	switch c.Mapper {
	case MapperLinear:
		return mapper.NewLinear(org, c.ChannelWidthBits), nil
	case MapperCustom:
		return mapper.NewCustom(org, c.ChannelWidthBits), nil
	default:
		return nil, fmt.Errorf("simconfig: unknown mapper %q", c.Mapper)
	}
}
