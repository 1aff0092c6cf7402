package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/npmmirror/internal/config"
	"github.com/blackwell-systems/npmmirror/internal/npm"
)

// newRunner builds the npm runner for a command, run from dir so the
// project's .npmrc applies. Tests replace it.
var newRunner = func(binary, dir string) npm.Runner {
	r := npm.NewExecRunner(binary)
	r.Dir = dir
	return r
}

// commonFlags are registered on both root commands.
type commonFlags struct {
	npmBinary string
	history   bool
	dbPath    string
	verbose   bool
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.npmBinary, "npm", "", "npm executable (default: npm on PATH)")
	cmd.PersistentFlags().BoolVar(&f.history, "history", false, "record this run in the history database")
	cmd.PersistentFlags().StringVar(&f.dbPath, "db", "", "history database path (default: ~/.npmmirror/history.db)")
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig reads the config file and applies the common flags on top.
func (f *commonFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	if f.npmBinary != "" {
		cfg.NPM = f.npmBinary
	}
	if f.history {
		cfg.History = true
	}
	if f.dbPath != "" {
		cfg.DB = f.dbPath
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
