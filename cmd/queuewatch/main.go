package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/queuewatch/queuewatch/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (default ~/.config/queuewatch/config.toml)")
	prefsPath := flag.String("prefs", "", "preferences file path (default ~/.config/queuewatch/prefs.toml)")
	serverURL := flag.String("server", "", "backend URL, overrides config and QUEUEWATCH_SERVER_URL")
	headless := flag.Bool("headless", false, "log events to stderr instead of starting the TUI")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		ServerURL:  *serverURL,
		Headless:   *headless,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "queuewatch: %v\n", err)
		return 1
	}
	return 0
}
