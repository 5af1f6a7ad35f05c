package main

import (
	"errors"
	"fmt"

	"github.com/ankur-anand/dupekit/internal/dupectl/dump"
	"github.com/ankur-anand/dupekit/internal/dupectl/export"
	"github.com/ankur-anand/dupekit/internal/dupectl/inspect"
	"github.com/ankur-anand/dupekit/internal/dupectl/scan"
	"github.com/ankur-anand/dupekit/pkg/dupefile"
	"github.com/urfave/cli/v2"
)

var depthFlag = &cli.IntFlag{
	Name:  "depth",
	Usage: "Stop expanding containers below this depth (0 = unlimited)",
}

func requireArgs(c *cli.Context, what string) ([]string, error) {
	if c.NArg() == 0 {
		return nil, fmt.Errorf("missing %s argument", what)
	}
	return c.Args().Slice(), nil
}

func inspectCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show header fields, sizes and graph summary of dupe files",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			paths, err := requireArgs(c, "FILE")
			if err != nil {
				return err
			}
			f := s.formatter()
			for _, p := range paths {
				detail, err := inspect.Inspect(p, s.load...)
				if err != nil {
					return err
				}
				if err := f.WriteDupeDetail(s.stdout, *detail); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func validateCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check dupe files for the fields a paste needs",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			paths, err := requireArgs(c, "FILE")
			if err != nil {
				return err
			}
			f := s.formatter()
			invalid := 0
			for _, p := range paths {
				report, err := inspect.Check(p, s.load...)
				if err != nil {
					return err
				}
				if !report.Valid {
					invalid++
				}
				if err := f.WriteValidationReport(s.stdout, *report); err != nil {
					return err
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d files have defects", invalid, len(paths))
			}
			return nil
		},
	}
}

func dumpCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Print the decoded value graph of a dupe file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			depthFlag,
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON instead of an indented tree",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("dump takes exactly one FILE argument")
			}
			d, err := dupefile.Load(c.Args().First(), s.load...)
			if err != nil {
				return err
			}
			opts := dump.Options{MaxDepth: c.Int("depth")}
			if c.Bool("json") || s.cfg.OutputConfig.Format == "json" {
				return dump.JSON(s.stdout, d.Root, opts)
			}
			return dump.Tree(s.stdout, d.Root, opts)
		},
	}
}

func scanCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Load and validate every dupe file below a directory",
		ArgsUsage: "DIR",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent loads (default from config, else GOMAXPROCS)",
			},
			&cli.StringSliceFlag{
				Name:  "ext",
				Usage: "File extension to include, repeatable (default .txt and .dupe)",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Path of the scan result cache",
			},
			&cli.StringFlag{
				Name:  "metrics-textfile",
				Usage: "Write Prometheus metrics to this file after the scan",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("scan takes exactly one DIR argument")
			}
			sc := s.cfg.ScanConfig
			opts := scan.Options{
				Root:            c.Args().First(),
				Extensions:      sc.Extensions,
				Workers:         sc.Workers,
				CachePath:       sc.CachePath,
				MetricsTextfile: sc.MetricsTextfile,
				Load:            s.load,
				Logger:          s.logger,
			}
			if c.IsSet("workers") {
				opts.Workers = c.Int("workers")
			}
			if c.IsSet("ext") {
				opts.Extensions = c.StringSlice("ext")
			}
			if c.IsSet("cache") {
				opts.CachePath = c.String("cache")
			}
			if c.IsSet("metrics-textfile") {
				opts.MetricsTextfile = c.String("metrics-textfile")
			}

			report, err := scan.Run(c.Context, opts)
			if err != nil {
				return err
			}
			return s.formatter().WriteScanReport(s.stdout, *report)
		},
	}
}

func exportCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write JSON dumps of dupe files into a directory",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Required: true,
				Usage:    "Output directory",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Decode and validate without writing",
			},
			depthFlag,
		},
		Action: func(c *cli.Context) error {
			paths, err := requireArgs(c, "FILE")
			if err != nil {
				return err
			}
			result, err := export.Run(export.Options{
				Sources:   paths,
				OutputDir: c.String("out"),
				DryRun:    c.Bool("dry-run"),
				Dump:      dump.Options{MaxDepth: c.Int("depth")},
				Load:      s.load,
				Logger:    s.logger,
			})
			if err != nil {
				return err
			}
			if err := s.formatter().WriteExportResult(s.stdout, *result); err != nil {
				return err
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d of %d files could not be exported", len(result.Failed), len(paths))
			}
			return nil
		},
	}
}

func versionCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the banner and version",
		Action: func(c *cli.Context) error {
			printBanner(s.stdout)
			fmt.Fprintf(s.stdout, "dupectl %s\n", version)
			return nil
		},
	}
}
