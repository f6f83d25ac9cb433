// Command finbot runs the finance assistant Telegram bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/m3rciful/finbot/core/buildinfo"
	"github.com/m3rciful/finbot/core/cmd"
	"github.com/m3rciful/finbot/finbot/app"
)

const defaultConfigPath = "config.yaml"

func main() {
	opts, help, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if help {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if opts.Version {
		fmt.Printf("finbot %s (%s) %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		return
	}

	err = cmd.Run(cmd.Options{
		ConfigPath:        opts.Config,
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			cfg, err := app.LoadConfig(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := carrier.(*app.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			a, err := app.Bootstrap(context.Background(), cfg, app.Options{})
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("finbot: %v", err)
	}
}
