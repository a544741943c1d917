package config

import "time"

// Runtime holds the tunable engine parameters. Values come from the viper
// config file or flags; zero fields are replaced by the defaults below.
type Runtime struct {
	// Port prober
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	BannerTimeout  time.Duration `mapstructure:"banner_timeout"`
	MaxPortWorkers int           `mapstructure:"max_port_workers"`
	ProbeRate      int           `mapstructure:"probe_rate"` // connects per second, 0 = unlimited

	// Header auditor / TLS inspector
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	TLSTimeout     time.Duration `mapstructure:"tls_timeout"`
	NearExpiryDays int           `mapstructure:"near_expiry_days"`

	// Job ceilings per scan mode
	QuickScanTimeout time.Duration `mapstructure:"quick_scan_timeout"`
	DeepScanTimeout  time.Duration `mapstructure:"deep_scan_timeout"`
}

// DefaultRuntime returns the stock engine parameters.
func DefaultRuntime() Runtime {
	return Runtime{
		ConnectTimeout:   3 * time.Second,
		BannerTimeout:    time.Second,
		MaxPortWorkers:   50,
		ProbeRate:        0,
		HTTPTimeout:      10 * time.Second,
		TLSTimeout:       5 * time.Second,
		NearExpiryDays:   30,
		QuickScanTimeout: 2 * time.Minute,
		DeepScanTimeout:  15 * time.Minute,
	}
}

// Normalize fills zero fields with defaults so partially populated configs
// stay usable.
func (r Runtime) Normalize() Runtime {
	def := DefaultRuntime()
	if r.ConnectTimeout <= 0 {
		r.ConnectTimeout = def.ConnectTimeout
	}
	if r.BannerTimeout <= 0 {
		r.BannerTimeout = def.BannerTimeout
	}
	if r.MaxPortWorkers <= 0 {
		r.MaxPortWorkers = def.MaxPortWorkers
	}
	if r.HTTPTimeout <= 0 {
		r.HTTPTimeout = def.HTTPTimeout
	}
	if r.TLSTimeout <= 0 {
		r.TLSTimeout = def.TLSTimeout
	}
	if r.NearExpiryDays <= 0 {
		r.NearExpiryDays = def.NearExpiryDays
	}
	if r.QuickScanTimeout <= 0 {
		r.QuickScanTimeout = def.QuickScanTimeout
	}
	if r.DeepScanTimeout <= 0 {
		r.DeepScanTimeout = def.DeepScanTimeout
	}
	return r
}
