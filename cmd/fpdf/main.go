package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/chanfle/fpdf/internal/analyzer"
	"github.com/chanfle/fpdf/internal/api"
	"github.com/chanfle/fpdf/internal/config"
	"github.com/chanfle/fpdf/internal/index"
	"github.com/chanfle/fpdf/internal/memcache"
	"github.com/chanfle/fpdf/internal/presentation"
	"github.com/chanfle/fpdf/internal/query"
	"github.com/chanfle/fpdf/pkg/analysis"
	"github.com/chanfle/fpdf/pkg/logging"
)

var cfg *config.Config

func main() {
	app := &cli.App{
		Name:  "fpdf",
		Usage: "Fast cached PDF analysis and filtering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   ".fpdf.toml",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Cache directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = config.Load(c.String("config"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if dir := c.String("cache-dir"); dir != "" {
				cfg.CacheDir = dir
			}
			if level := c.String("log-level"); level != "" {
				cfg.Log.Level = level
			}
			logCfg := logging.DefaultLogConfig()
			logCfg.Level = cfg.Log.Level
			logCfg.Format = cfg.Log.Format
			if err := logging.SetupLogger(logCfg); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
		Commands: []*cli.Command{
			cacheCommand(),
			analyzeCommand(),
			queryCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func openIndex() (*index.Index, error) {
	ix, err := index.Open(cfg.CacheDir)
	if err != nil {
		return nil, cli.Exit(err.Error(), 1)
	}
	return ix, nil
}

func outputFormat(c *cli.Context) (presentation.OutputFormat, error) {
	format, err := presentation.ParseFormat(c.String("format"))
	if err != nil {
		return "", cli.Exit(err.Error(), 1)
	}
	return format, nil
}

func cacheCommand() *cli.Command {
	formatFlag := &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, json, csv, count",
		Value:   "text",
	}

	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the analysis cache",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cache entries in insertion order",
				Flags: []cli.Flag{formatFlag},
				Action: func(c *cli.Context) error {
					ix, err := openIndex()
					if err != nil {
						return err
					}
					defer ix.Close()

					format, err := outputFormat(c)
					if err != nil {
						return err
					}
					entries, err := ix.List()
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					out, err := presentation.NewRenderer().RenderEntries(entries, format)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Print(out)
					return nil
				},
			},
			{
				Name:  "stats",
				Usage: "Show aggregate cache statistics",
				Flags: []cli.Flag{formatFlag},
				Action: func(c *cli.Context) error {
					ix, err := openIndex()
					if err != nil {
						return err
					}
					defer ix.Close()

					format, err := outputFormat(c)
					if err != nil {
						return err
					}
					stats, err := ix.Stats()
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					out, err := presentation.NewRenderer().RenderStats(stats, format)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Print(out)
					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove one cache entry and its blob",
				ArgsUsage: "<identifier>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return cli.Exit("usage: fpdf cache remove <identifier>", 1)
					}
					ix, err := openIndex()
					if err != nil {
						return err
					}
					defer ix.Close()

					removed, err := ix.Remove(c.Args().First())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if !removed {
						fmt.Printf("No cache entry matches %q\n", c.Args().First())
						return nil
					}
					fmt.Println("✅ Cache entry removed")
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Remove all cache entries and blobs",
				Action: func(c *cli.Context) error {
					ix, err := openIndex()
					if err != nil {
						return err
					}
					defer ix.Close()

					if err := ix.Clear(); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Println("✅ Cache cleared")
					return nil
				},
			},
			{
				Name:      "find",
				Usage:     "Resolve a token and show the matching entry",
				ArgsUsage: "<token>",
				Flags:     []cli.Flag{formatFlag},
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return cli.Exit("usage: fpdf cache find <token>", 1)
					}
					ix, err := openIndex()
					if err != nil {
						return err
					}
					defer ix.Close()

					format, err := outputFormat(c)
					if err != nil {
						return err
					}
					entry, found, err := ix.Resolve(c.Args().First())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if !found {
						fmt.Printf("No cache entry matches %q\n", c.Args().First())
						return nil
					}
					out, err := presentation.NewRenderer().RenderEntries([]index.Entry{*entry}, format)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Print(out)
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "Export the cache listing to an Excel workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output .xlsx path",
						Value:   "cache.xlsx",
					},
				},
				Action: func(c *cli.Context) error {
					ix, err := openIndex()
					if err != nil {
						return err
					}
					defer ix.Close()

					entries, err := ix.List()
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if err := presentation.ExportEntriesXLSX(entries, c.String("out")); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Printf("✅ Exported %d entries to %s\n", len(entries), c.String("out"))
					return nil
				},
			},
		},
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze a PDF and store the result in the cache",
		ArgsUsage: "<file.pdf>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Extraction mode: standard or ultra",
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Usage: "Limit analyzed pages (0 = unlimited)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("usage: fpdf analyze <file.pdf>", 1)
			}
			path := c.Args().First()

			mode := analysis.ExtractionMode(cfg.Analyzer.Mode)
			if m := c.String("mode"); m != "" {
				mode = analysis.ExtractionMode(m)
			}
			if mode != analysis.ModeStandard && mode != analysis.ModeUltra {
				return cli.Exit(fmt.Sprintf("invalid extraction mode %q", mode), 1)
			}
			maxPages := cfg.Analyzer.MaxPages
			if c.IsSet("max-pages") {
				maxPages = c.Int("max-pages")
			}

			a := &analyzer.PDFAnalyzer{Mode: mode, MaxPages: maxPages}
			result, err := a.Analyze(context.Background(), path)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			ix, err := openIndex()
			if err != nil {
				return err
			}
			defer ix.Close()

			entry, err := analyzer.StoreResult(ix, result, path)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fmt.Printf("✅ Cached %s (%d pages, mode %s)\n", entry.Identifier, result.PageCount(), entry.ExtractionMode)
			return nil
		},
	}
}

// filterFlagNames maps CLI flags to engine filter names, in the order the
// filters are added to the spec.
var filterFlagNames = []string{
	query.FilterMinPages, query.FilterMaxPages, query.FilterBookmarks,
	query.FilterForms, query.FilterEncrypted,
	query.FilterType, query.FilterKey, query.FilterSize,
	query.FilterMinSize, query.FilterMaxSize, query.FilterStream,
	query.FilterRefs, query.FilterWord, query.FilterSignature,
}

func queryCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "scope",
			Usage: "Element scope: pages or objects",
			Value: "pages",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, xml, csv, markdown, raw, count",
			Value:   "text",
		},
	}
	for _, name := range filterFlagNames {
		flags = append(flags, &cli.StringFlag{Name: name, Usage: "Filter: " + name})
	}

	return &cli.Command{
		Name:      "query",
		Usage:     "Filter a cached analysis",
		ArgsUsage: "<token>",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("usage: fpdf query <token> [filters]", 1)
			}
			token := c.Args().First()

			format, err := outputFormat(c)
			if err != nil {
				return err
			}
			scope := query.Scope(c.String("scope"))
			if scope != query.ScopePages && scope != query.ScopeObjects {
				return cli.Exit(fmt.Sprintf("invalid scope %q", scope), 1)
			}

			ix, err := openIndex()
			if err != nil {
				return err
			}
			defer ix.Close()

			blobPath, err := ix.FindBlobPath(token)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if blobPath == "" {
				fmt.Printf("No cache entry matches %q\n", token)
				return nil
			}

			result, err := memcache.New().Load(blobPath)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			spec := query.NewFilterSpec()
			for _, name := range filterFlagNames {
				if c.IsSet(name) {
					spec.Add(name, c.String(name))
				}
			}

			matches, err := query.Evaluate(result, scope, spec)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			out, err := presentation.NewRenderer().RenderMatches(matches, format)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fmt.Print(out)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local helper HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			ix, err := openIndex()
			if err != nil {
				return err
			}
			defer ix.Close()

			addr := c.String("addr")
			if addr == "" {
				addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			}
			handlers := api.NewHandlers(ix, memcache.New())
			if err := api.Serve(handlers, addr); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}
