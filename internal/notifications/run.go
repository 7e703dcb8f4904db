package notifications

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"whos-got-my-order/internal/floor/config"
	"whos-got-my-order/internal/notifications/subscriber"
	"whos-got-my-order/pkg/logger"
)

// Execute starts the notification subscriber. It returns when the
// subscriber stops.
func Execute(ctx context.Context, mylog logger.Logger, args []string) error {
	notifyCtx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := flag.NewFlagSet("notification-subscriber", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config-path", "config.yaml", "path for config yaml")
	if err := fs.Parse(args); err != nil {
		return errors.New("cannot parse arguments")
	}
	if *showHelp {
		fs.Usage()
		return flag.ErrHelp
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		mylog.Action("config_load_failed").Error("Failed to load config", err)
		return err
	}

	sub, err := subscriber.New(cfg.RMQ, mylog)
	if err != nil {
		mylog.Action("mb_connection_failed").Error("Failed to connect to message broker", err)
		return err
	}
	defer sub.Close()

	mylog.Action("subscriber_started").Info("Listening for order status changes")
	return sub.Run(notifyCtx)
}
