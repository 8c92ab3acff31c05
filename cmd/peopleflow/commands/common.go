// Package commands implements the peopleflow subcommands.
package commands

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"go-peopleflow/internal/config"
	"go-peopleflow/internal/logging"
)

// Options are the persistent flags shared by every subcommand.
type Options struct {
	ConfigPath string
	LogLevel   string
}

// AddFlags registers the persistent flags on root.
func (o *Options) AddFlags(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&o.ConfigPath, "config", "c", "", "config file (default config.yaml or $PEOPLEFLOW_CONFIG)")
	root.PersistentFlags().StringVar(&o.LogLevel, "log-level", "", "override the configured log level")
}

// load reads the configuration and points logging at logOut. Interactive
// commands log human readable lines at warn level unless told otherwise.
func (o *Options) load(logOut io.Writer, interactive bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.LoadFile(o.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if interactive {
		cfg.Logging.Format = "console"
		cfg.Logging.Level = "warn"
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	cfg.Logging.Output = logOut
	logging.Init(cfg.Logging)
	return cfg, nil
}

// newTable returns a light-style table whose footer keeps its case.
func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Footer = text.FormatDefault
	return tbl
}
