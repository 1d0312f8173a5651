package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/robertof/go-keetronics-client/ble"
	"github.com/robertof/go-keetronics-client/device"
	"github.com/robertof/go-keetronics-client/link"
	"gopkg.in/yaml.v3"
)

type config struct {
  Debug, Trace bool
  ConfigFile string
  BindAddress string
  EnableMetrics bool
  BluetoothDeviceId int
  BluetoothConnParams ble.ConnParams
  RetryDelay, ConnectTimeout time.Duration
  Device *device.Target
}

// fileConfig mirrors the command line flags. Keys missing from the file leave the
// corresponding flag alone.
type fileConfig struct {
  Bind *string `yaml:"bind"`
  Metrics *bool `yaml:"metrics"`
  BluetoothDevice *int `yaml:"bluetooth_device"`
  BluetoothConnParams *string `yaml:"bluetooth_connection_params"`
  Device *string `yaml:"device"`
  RetryDelay *time.Duration `yaml:"retry_delay"`
  ConnectTimeout *time.Duration `yaml:"connect_timeout"`
  Debug *bool `yaml:"debug"`
  Trace *bool `yaml:"trace"`
}

type boundDevice struct {
  target **device.Target
}

func (d *boundDevice) String() string {
  if d.target == nil || *d.target == nil {
    return ""
  }

  return (*d.target).String()
}

func (d *boundDevice) Set(v string) error {
  target, err := device.FromDeviceSpec(device.NewDeviceSpec(v))
  if err != nil {
    return fmt.Errorf("failed to create device: %w", err)
  }

  *d.target = target

  return nil
}

func ParseArgs(name string, args []string, output io.Writer) (config, error) {
  var cfg config

  cfg.BluetoothConnParams = ble.ConnParamsDefault
  cfg.Device = device.MustDefault()

  fs := flag.NewFlagSet(name, flag.ContinueOnError)
  fs.SetOutput(output)

  fs.StringVar(&cfg.ConfigFile, "config", "", "Optional YAML file; its values apply to flags not given on the command line")
  fs.StringVar(&cfg.BindAddress, "bind", "localhost:9102", "Where the metrics server will bind to")
  fs.BoolVar(&cfg.EnableMetrics, "metrics", true, "Enable Bluetooth and connection metrics")
  fs.IntVar(&cfg.BluetoothDeviceId, "bluetooth-device", 0, "Bluetooth (HCI) device ID")
  fs.Var(&cfg.BluetoothConnParams, "bluetooth-connection-params", "Bluetooth connection parameters (one of 'default' or 'power-saving')")
  fs.Var(&boundDevice{target: &cfg.Device}, "device",
    "Device spec in the form of `key=value,key=value`.\n" +
    "Keys: addr (default " + device.DefaultAddress + "), name, service, characteristic")
  fs.DurationVar(&cfg.RetryDelay, "retry-delay", link.DefaultRetryDelay, "Delay before reconnecting after a failure")
  fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", link.DefaultConnectTimeout, "Timeout for each connection attempt")
  fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logs")
  fs.BoolVar(&cfg.Trace, "trace", false, "Enable trace logs")

  if err := fs.Parse(args); err != nil {
    return cfg, err
  }

  if cfg.ConfigFile == "" {
    return cfg, nil
  }

  data, err := os.ReadFile(cfg.ConfigFile)
  if err != nil {
    return cfg, errors.Wrap(err, "failed to read config file")
  }

  if err := applyConfigFile(fs, data); err != nil {
    return cfg, errors.Wrapf(err, "invalid config file %s", cfg.ConfigFile)
  }

  return cfg, nil
}

func applyConfigFile(fs *flag.FlagSet, data []byte) error {
  var fc fileConfig

  if err := yaml.Unmarshal(data, &fc); err != nil {
    return err
  }

  explicit := map[string]bool{}
  fs.Visit(func(f *flag.Flag) {
    explicit[f.Name] = true
  })

  values := map[string]string{}

  if fc.Bind != nil {
    values["bind"] = *fc.Bind
  }
  if fc.Metrics != nil {
    values["metrics"] = strconv.FormatBool(*fc.Metrics)
  }
  if fc.BluetoothDevice != nil {
    values["bluetooth-device"] = strconv.Itoa(*fc.BluetoothDevice)
  }
  if fc.BluetoothConnParams != nil {
    values["bluetooth-connection-params"] = *fc.BluetoothConnParams
  }
  if fc.Device != nil {
    values["device"] = *fc.Device
  }
  if fc.RetryDelay != nil {
    values["retry-delay"] = fc.RetryDelay.String()
  }
  if fc.ConnectTimeout != nil {
    values["connect-timeout"] = fc.ConnectTimeout.String()
  }
  if fc.Debug != nil {
    values["debug"] = strconv.FormatBool(*fc.Debug)
  }
  if fc.Trace != nil {
    values["trace"] = strconv.FormatBool(*fc.Trace)
  }

  for name, v := range values {
    if explicit[name] {
      continue
    }

    if err := fs.Set(name, v); err != nil {
      return errors.Wrapf(err, "key for -%s", name)
    }
  }

  return nil
}
