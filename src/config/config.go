package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"elevfleet/src/types"
)

const (
	DefaultNumCars   = 2
	DefaultNumFloors = 4
	DefaultHost      = "localhost"
	DefaultBasePort  = 10000
)

// Config is fixed for the lifetime of the process.
type Config struct {
	NumCars              int           `yaml:"numCars"`
	NumFloors            int           `yaml:"numFloors"`
	Host                 string        `yaml:"host"`
	BasePort             int           `yaml:"basePort"`             // car i connects to BasePort+i
	DoorOpenDuration     time.Duration `yaml:"doorOpenDuration"`     // door timer
	PollInterval         time.Duration `yaml:"pollInterval"`         // sleep between hardware poll passes
	LightSettleDelay     time.Duration `yaml:"lightSettleDelay"`     // pause before the door lamp is lit on a stop
	DispatcherInbox      int           `yaml:"dispatcherInbox"`      // buffer of the cars-to-dispatcher channel
	CarInbox             int           `yaml:"carInbox"`             // buffer of each dispatcher-to-car channel
	ReloadHardwareConfig bool          `yaml:"reloadHardwareConfig"` // send reload-config before calibration
	MetricsAddr          string        `yaml:"metricsAddr"`          // empty disables /metrics and /fleet
	LogLevel             string        `yaml:"logLevel"`
	LogFile              string        `yaml:"logFile"`
}

// Default returns the configuration used when neither a file nor flags set a value.
func Default() Config {
	return Config{
		NumCars:          DefaultNumCars,
		NumFloors:        DefaultNumFloors,
		Host:             DefaultHost,
		BasePort:         DefaultBasePort,
		DoorOpenDuration: 3 * time.Second,
		PollInterval:     5 * time.Millisecond,
		LightSettleDelay: 50 * time.Millisecond,
		DispatcherInbox:  256,
		CarInbox:         64,
		LogLevel:         "info",
	}
}

// AddFlags binds every field to a flag on fs.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.NumCars, "cars", c.NumCars, "Number of elevator cars in the fleet.")
	fs.IntVar(&c.NumFloors, "floors", c.NumFloors, "Number of floors served.")
	fs.StringVar(&c.Host, "host", c.Host, "Host of the hardware controllers.")
	fs.IntVar(&c.BasePort, "base-port", c.BasePort, "TCP port of car 0; car i uses base-port+i.")
	fs.DurationVar(&c.DoorOpenDuration, "door-open-duration", c.DoorOpenDuration, "How long the door stays open at a stop.")
	fs.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "Sleep between hardware poll passes.")
	fs.DurationVar(&c.LightSettleDelay, "light-settle-delay", c.LightSettleDelay, "Pause before the door lamp is lit on a stop.")
	fs.IntVar(&c.DispatcherInbox, "dispatcher-inbox", c.DispatcherInbox, "Buffer size of the channel from cars to the dispatcher.")
	fs.IntVar(&c.CarInbox, "car-inbox", c.CarInbox, "Buffer size of each channel from the dispatcher to a car.")
	fs.BoolVar(&c.ReloadHardwareConfig, "reload-hw-config", c.ReloadHardwareConfig, "Send reload-config to each controller before calibration.")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Address serving /metrics and /fleet. Empty disables it.")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn or error.")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Also write logs to this file.")
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse builds the configuration from command line arguments. Values come from the defaults,
// then the file named by --config, then any flag set explicitly.
func Parse(args []string) (Config, error) {
	fs := pflag.NewFlagSet("elevfleet", pflag.ContinueOnError)
	var path string
	fs.StringVarP(&path, "config", "c", "", "Path to a YAML configuration file.")
	flagCfg := Default()
	flagCfg.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return Config{}, err
		}
	}

	apply := pflag.NewFlagSet("apply", pflag.ContinueOnError)
	cfg.AddFlags(apply)
	var errs []error
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		if err := apply.Set(f.Name, f.Value.String()); err != nil {
			errs = append(errs, err)
		}
	})
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.NumCars < 1 {
		errs = append(errs, fmt.Errorf("cars must be positive, got %d", c.NumCars))
	}
	if _, err := c.Floors(); err != nil {
		errs = append(errs, err)
	}
	if c.BasePort < 1 || c.BasePort+c.NumCars-1 > 65535 {
		errs = append(errs, fmt.Errorf("ports %d..%d out of range", c.BasePort, c.BasePort+c.NumCars-1))
	}
	if c.DoorOpenDuration <= 0 || c.PollInterval <= 0 {
		errs = append(errs, errors.New("door-open-duration and poll-interval must be positive"))
	}
	if c.LightSettleDelay < 0 {
		errs = append(errs, errors.New("light-settle-delay must not be negative"))
	}
	if c.DispatcherInbox < 1 || c.CarInbox < 1 {
		errs = append(errs, errors.New("channel buffers must be positive"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

func (c Config) Floors() (types.FloorRange, error) {
	return types.NewFloorRange(c.NumFloors)
}

// CarAddr is the hardware controller address of car i.
func (c Config) CarAddr(i int) string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.BasePort+i))
}
