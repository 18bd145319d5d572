package factory

import "time"

// DefaultTimeout is the connection timeout used when none is configured.
const DefaultTimeout = 10 * time.Second

// Config is the policy attached to a factory at registration.
type Config struct {
	// UseFactoryName assigns the factory's name to the device it builds.
	UseFactoryName bool
	// Timeout is the default connection timeout.
	Timeout time.Duration
	// Mock is the default simulation flag passed to Connect.
	Mock bool
	// Skip gates the factory out of discovery.
	Skip Skip
}

func defaultConfig() Config {
	return Config{
		UseFactoryName: true,
		Timeout:        DefaultTimeout,
	}
}

// Option adjusts a factory's Config at registration.
type Option func(*Config)

// Timeout sets the default connection timeout.
func Timeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// Mock makes the factory connect its device in simulation by default.
func Mock() Option {
	return func(c *Config) { c.Mock = true }
}

// KeepDeviceName leaves the device's own name untouched.
func KeepDeviceName() Option {
	return func(c *Config) { c.UseFactoryName = false }
}

// SkipIf hides the factory from discovery when skip is true.
func SkipIf(skip bool) Option {
	return func(c *Config) { c.Skip = Skip{static: skip} }
}

// SkipWhen hides the factory whenever fn returns true. fn is evaluated on
// every discovery pass, so it may consult the current beamline.
func SkipWhen(fn func() bool) Option {
	return func(c *Config) { c.Skip = Skip{fn: fn} }
}

// Skip is a static or lazily evaluated gate.
type Skip struct {
	static bool
	fn     func() bool
}

// Evaluate returns the current decision.
func (s Skip) Evaluate() bool {
	if s.fn != nil {
		return s.fn()
	}
	return s.static
}

// Dynamic reports whether the decision is computed on each call.
func (s Skip) Dynamic() bool { return s.fn != nil }

// callConfig holds per-call overrides.
type callConfig struct {
	connect bool
	name    string
	timeout time.Duration
	mock    *bool
	args    []any
}

// CallOption adjusts a single Get or Build call.
type CallOption func(*callConfig)

// ConnectNow connects the device before the call returns.
func ConnectNow() CallOption {
	return func(c *callConfig) { c.connect = true }
}

// Named overrides the device name for this build.
func Named(name string) CallOption {
	return func(c *callConfig) { c.name = name }
}

// WithTimeout overrides the connection timeout for this call.
func WithTimeout(d time.Duration) CallOption {
	return func(c *callConfig) { c.timeout = d }
}

// WithMock overrides the simulation flag for this call.
func WithMock(mock bool) CallOption {
	return func(c *callConfig) { c.mock = &mock }
}

// Args passes extra arguments through to the factory function.
func Args(args ...any) CallOption {
	return func(c *callConfig) { c.args = append(c.args, args...) }
}

func resolveCall(cfg Config, opts []CallOption) callConfig {
	var call callConfig
	for _, opt := range opts {
		opt(&call)
	}
	if call.timeout <= 0 {
		call.timeout = cfg.Timeout
	}
	if call.timeout <= 0 {
		call.timeout = DefaultTimeout
	}
	if call.mock == nil {
		m := cfg.Mock
		call.mock = &m
	}
	return call
}
