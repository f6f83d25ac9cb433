package main

import (
	"errors"

	"github.com/jessevdk/go-flags"
)

// options are the command-line flags, interpreted by github.com/jessevdk/go-flags.
type options struct {
	Config  string `short:"c" long:"config" description:"path to the YAML config (default: $CONFIG_PATH or config.yaml)"`
	Version bool   `short:"v" long:"version" description:"print version and exit"`
}

// parseArgs parses args into options. help reports that -h/--help was requested.
func parseArgs(args []string) (opts options, help bool, err error) {
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err = parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return opts, true, err
		}
		return opts, false, err
	}
	return opts, false, nil
}
