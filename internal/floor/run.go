package floor

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"whos-got-my-order/internal/floor/api/http"
	"whos-got-my-order/internal/floor/config"
	"whos-got-my-order/pkg/logger"
)

type params struct {
	configPath string
	port       int
	cfg        *config.Config
}

// Execute starts the floor service. It returns when the service stops.
func Execute(ctx context.Context, mylog logger.Logger, args []string) error {
	notifyCtx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := parseParams(args)
	if err != nil {
		mylog.Action("command_parse_failed").Error("Invalid command received", err)
		return err
	}
	if err := validateParams(p); err != nil {
		mylog.Action("command_validation_failed").Error("Invalid command received", err)
		return err
	}
	mylog.Action("command_validation_completed").Info("Successfully validated params")

	server := http.NewServer(notifyCtx, context.Background(), p.cfg, mylog)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- server.Run()
	}()

	select {
	case <-notifyCtx.Done():
		mylog.Action("shutdown_signal_received").Info("Shutdown signal received")
		return server.Stop(context.Background())
	case err := <-runErrCh:
		if err != nil {
			mylog.Action("floor_service_failed").Error("Server failed unexpectedly", err)
			return err
		}
		mylog.Action("server_stopped").Info("Server exited normally")
		return nil
	}
}

func parseParams(args []string) (*params, error) {
	fs := flag.NewFlagSet("floor-service", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config-path", "config.yaml", "path for config yaml")
	port := fs.Int("port", 0, "HTTP port, overrides the config when set")

	if err := fs.Parse(args); err != nil {
		return nil, errors.New("cannot parse arguments")
	}
	if *showHelp {
		fs.Usage()
		return nil, flag.ErrHelp
	}

	return &params{configPath: *configPath, port: *port}, nil
}

func validateParams(p *params) error {
	cfg, err := config.Load(p.configPath)
	if err != nil {
		return err
	}
	if p.port != 0 {
		cfg.HTTP.Port = p.port
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port >= 65536 {
		return fmt.Errorf("port must be in [1, 65535]: %d", cfg.HTTP.Port)
	}
	p.cfg = cfg
	return nil
}
