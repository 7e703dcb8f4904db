package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"whos-got-my-order/internal/notifications"
	"whos-got-my-order/pkg/logger"
)

func main() {
	mylog := logger.New("notification-subscriber")

	err := notifications.Execute(context.Background(), mylog, os.Args[1:])
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		os.Exit(1)
	}
}
