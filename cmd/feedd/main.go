package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/matheus3301/guestfeed/internal/config"
	"github.com/matheus3301/guestfeed/internal/daemon"
	"github.com/matheus3301/guestfeed/internal/workspace"
)

func main() {
	workspaceFlag := flag.String("workspace", "", "workspace name (overrides config default)")
	configFlag := flag.String("config", "", "config file (default $GUESTFEED_HOME/config.toml)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	layout := workspace.DefaultLayout()
	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = layout.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}

	name := workspace.Resolve(*workspaceFlag, cfg)
	if err := workspace.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{
			Workspace:  name,
			Layout:     layout,
			ConfigPath: cfgPath,
			LogLevel:   *logLevel,
		}),
	)

	app.Run()
}
