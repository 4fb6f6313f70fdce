package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/shipgrid/internal/app"
	"github.com/vk/shipgrid/internal/params"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// assignments collects repeatable `-p name=value` flags.
type assignments []string

func (a *assignments) String() string { return strings.Join(*a, ",") }

func (a *assignments) Set(v string) error {
	*a = append(*a, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("shipgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
shipgrid - Build, test, package and release pipeline runner.

Usage:
  shipgrid [options] <operation>
  shipgrid [options] list
  shipgrid [options] plan <operation>
  shipgrid [options] params

Operations (default pipeline):
  build, test, install, docs, readme, lint, clean, tag, package, publish,
  push-tags, containerize, release, notify-release, bundle-workflow,
  all, perftest

Parameters are resolved from the pipeline's params block, then
SHIPGRID_<NAME> environment variables, then -p flags.

Options:
`)
		flagSet.PrintDefaults()
	}

	var overrides assignments
	configFlag := flagSet.String("config", "", "Pipeline .hcl/.yaml file or directory. Defaults to the embedded pipeline.")
	cFlag := flagSet.String("c", "", "Pipeline file or directory (shorthand).")
	flagSet.Var(&overrides, "p", "Set a parameter as name=value. Repeatable.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workDirFlag := flagSet.String("workdir", ".", "Working tree the pipeline runs in.")
	eventsURLFlag := flagSet.String("events-url", "", "socket.io server that receives stage events. Empty disables reporting.")
	eventsNSFlag := flagSet.String("events-namespace", "/", "socket.io namespace for stage events.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No operation provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 2 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("too many arguments: %s", strings.Join(flagSet.Args(), " "))}
	}

	path := *configFlag
	if path == "" {
		path = *cFlag
	}

	values, err := params.ParseAssignments(overrides)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	config, err := app.NewConfig(app.Config{
		ConfigPath:      path,
		Operation:       flagSet.Arg(0),
		Target:          flagSet.Arg(1),
		Overrides:       values,
		WorkDir:         *workDirFlag,
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
		EventsURL:       *eventsURLFlag,
		EventsNamespace: *eventsNSFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "operation", config.Operation)
	return config, false, nil
}
