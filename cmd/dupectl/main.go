package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ankur-anand/dupekit/cmd/dupectl/config"
	"github.com/ankur-anand/dupekit/internal/dupectl/output"
	"github.com/ankur-anand/dupekit/pkg/dupefile"
	"github.com/ankur-anand/dupekit/pkg/logutil"
	"github.com/urfave/cli/v2"
)

// set with -ldflags "-X main.version=..."
var version = "0.1.0"

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Usage:   "Output format: table, json (default from config, else table)",
}

// session is what every command needs once flags and config are resolved.
type session struct {
	stdout io.Writer
	stderr io.Writer
	cfg    config.Config
	logger *slog.Logger
	load   []dupefile.LoadOption
}

func (s *session) before(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogConfig.LogLevel = lvl
	}
	if f := c.String("format"); f != "" {
		cfg.OutputConfig.Format = f
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logutil.NewLogger(s.stderr, cfg.LogConfig)
	if err != nil {
		return err
	}
	load, err := cfg.LoadOptions(logger)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.logger = logger
	s.load = load
	return nil
}

func (s *session) formatter() output.Formatter {
	return output.NewFormatter(output.Format(s.cfg.OutputConfig.Format))
}

func newApp(stdout, stderr io.Writer) *cli.App {
	s := &session{stdout: stdout, stderr: stderr, cfg: config.Default(), logger: logutil.Discard()}
	return &cli.App{
		Name:      "dupectl",
		Usage:     "Inspect, validate and export AdvDupe2 dupe files",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML config file",
			},
			formatFlag,
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
		},
		Before: s.before,
		Commands: []*cli.Command{
			inspectCommand(s),
			validateCommand(s),
			dumpCommand(s),
			scanCommand(s),
			exportCommand(s),
			versionCommand(s),
		},
	}
}

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
