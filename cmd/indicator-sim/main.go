//go:build !tinygo

// Command indicator-sim runs the indicator controllers on a host, either on
// a virtual clock (simulate) or in real time (run).
package main

import (
	"log/slog"
	"os"

	"indicator-go/logging"
	"indicator-go/services/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type globalOptions struct {
	configPath string
	device     string
	logLevel   string
	logFormat  string
}

func (g *globalOptions) register(fs *pflag.FlagSet) {
	fs.StringVarP(&g.configPath, "config", "c", "", "device config TOML (default: embedded profile)")
	fs.StringVarP(&g.device, "device", "d", "host", "embedded profile used when --config is not given")
	fs.StringVar(&g.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	fs.StringVar(&g.logFormat, "log-format", "", "override logging format (text, json)")
}

// load reads the device config and initialises logging from it.
func (g *globalOptions) load() (config.Config, error) {
	var (
		c   config.Config
		err error
	)
	if g.configPath == "" {
		c, err = config.Load(g.device)
	} else {
		var raw []byte
		raw, err = os.ReadFile(g.configPath)
		if err == nil {
			c, err = config.Parse(raw)
		}
	}
	if err != nil {
		return config.Config{}, err
	}

	lc := c.Logging
	if g.logLevel != "" {
		lc.Level = g.logLevel
	}
	if g.logFormat != "" {
		lc.Format = g.logFormat
	}
	logging.SetOutput(os.Stderr)
	logging.Initialize(lc)
	return c, nil
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "indicator-sim",
		Short:         "Run LED and speaker controllers on a host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.register(root.PersistentFlags())
	root.AddCommand(newSimulateCmd(g), newRunCmd(g))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("indicator-sim failed", "error", err)
		os.Exit(1)
	}
}
