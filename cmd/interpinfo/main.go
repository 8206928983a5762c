package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fatal(err)
	}
}

// globalFlags are the persistent flags shared by every subcommand. Empty
// values defer to the config file and environment.
type globalFlags struct {
	configPath  string
	appData     string
	backend     string
	logLevel    string
	metricsFile string
}

func (g *globalFlags) overrides() map[string]string {
	return map[string]string{
		"cache.app_data":   g.appData,
		"cache.backend":    g.backend,
		"log.level":        g.logLevel,
		"metrics.textfile": g.metricsFile,
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "interpinfo",
		Short: "Discover and cache facts about Python interpreters",
		Long: `interpinfo runs a small bootstrap script inside a Python interpreter and
reports what it finds: implementation, version, prefixes, sysconfig paths.

Results are cached per executable path and modification time, in memory and
in a durable store shared by every interpinfo process of the same user.

Examples:
  interpinfo query /usr/bin/python3
  interpinfo query --format yaml python3.12 python3.11
  interpinfo list
  interpinfo clear
  interpinfo config set cache.backend sqlite`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default: user config dir/interpinfo/config.toml)")
	pf.StringVar(&g.appData, "app-data", "", "application data directory (env INTERPINFO_APP_DATA)")
	pf.StringVar(&g.backend, "backend", "", "durable store: file, sqlite or disabled")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&g.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")

	root.AddCommand(
		newQueryCmd(g),
		newListCmd(g),
		newClearCmd(g),
		newConfigCmd(g),
	)
	return root
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "interpinfo: %v\n", err)
	os.Exit(1)
}
