package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/awim-deck/awimd/pkg/agent"
	"github.com/awim-deck/awimd/pkg/bridge"
	"github.com/awim-deck/awimd/pkg/control"
	"github.com/awim-deck/awimd/pkg/logging"
	"github.com/awim-deck/awimd/pkg/logging/zaplog"
	"github.com/awim-deck/awimd/pkg/supervisor"

	flags "github.com/jessevdk/go-flags"
)

type flagOptions struct {
	Config string `long:"config" short:"c" description:"Configuration file path (YAML)"`
}

func main() {
	var opts flagOptions
	parser := flags.NewParser(&opts, flags.HelpFlag)
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	config := agent.DefaultConfig()
	if opts.Config != "" {
		loaded, err := agent.LoadConfigFromFile(opts.Config)
		if err != nil {
			fmt.Printf("Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		config = loaded
	}

	zapLogger, err := zaplog.NewSprintfLogger(config.Supervisor.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	logger := logging.NewLogger("awimd: ", logging.LogFuncs{
		Debugf: zapLogger.Debugf,
		Infof:  zapLogger.Infof,
		Warnf:  zapLogger.Warnf,
		Errorf: zapLogger.Errorf,
	})

	store := bridge.NewStore(config.Bridge.SettingsPath, logger)
	initialConfig := store.Load()
	logger.Infof("Initialized with bridge endpoint %s:%d", initialConfig.Address, initialConfig.Port)

	commander := supervisor.NewExecCommander(supervisor.ExecCommanderOptions{
		BinaryPaths: config.Bridge.BinaryPaths,
	}, logger)

	liveness := supervisor.NewLogLivenessMonitor(
		config.Bridge.ServingMarker, config.Bridge.ConnectedMarker, logger)

	sup := supervisor.New(commander, liveness, store, supervisor.Options{
		InitialConfig:   initialConfig,
		GracefulTimeout: config.Supervisor.GracefulTimeout,
	}, logger)

	server := control.NewServer(sup, control.ServerOptions{
		Addr: config.Supervisor.ListenAddress,
	}, logger)
	server.Start()

	waitSignals(logger)

	logger.Infof("Stopping...")

	ctx := context.Background()
	if err := server.Stop(ctx); err != nil {
		logger.Errorf("Control API shutdown failed: %v", err)
	}
	sup.Close(ctx)

	logger.Infof("Stopped")
}

func waitSignals(logger logging.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	receivedSignal := <-sig
	logger.Infof("Received signal: %v", receivedSignal)
}
