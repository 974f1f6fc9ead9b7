// Package main is the content-engine maintenance CLI.
//
// It operates on a content directory shared with the web layer: listing and
// showing items, rebuilding indexes after out-of-band changes, watching for
// such changes, printing git history, and exporting document schemas.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"

	"github.com/rogermparent/content-engine/internal/config"
	"github.com/rogermparent/content-engine/internal/content"
	"github.com/rogermparent/content-engine/internal/gitstore"
	"github.com/rogermparent/content-engine/internal/sitetypes"
	"github.com/rogermparent/content-engine/internal/watcher"
)

const usage = `usage: content-engine [flags] <command>

commands:
  init                     initialize git tracking for the content directory
  rebuild [type...]        rebuild content indexes (all types when none given)
  list <type>              list index entries, newest first
  show <type> <slug>       print one item's document
  history [path]           print recent commits for a path (or the whole tree)
  watch                    watch for out-of-band changes and rebuild indexes
  schema <type>            print the JSON Schema for a type's documents
`

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "content-engine: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	contentDir := flag.String("content-dir", "", "Content directory (overrides config)")
	configPath := flag.String("config", config.FileName, "Path to the config file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	limit := flag.Int("limit", 20, "Page size for list")
	offset := flag.Int("offset", 0, "Page offset for list")
	oldest := flag.Bool("oldest", false, "List oldest entries first")
	historyN := flag.Int("n", 20, "Number of commits for history")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fmt.Fprintln(os.Stderr, "\nflags:")
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return errors.New("a command is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	setupLogging(*logLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *contentDir != "" {
		cfg.ContentDir = *contentDir
	}

	engine := content.New(cfg.ContentDir, cfg.AuthorName, cfg.AuthorEmail)
	engine.SetClient(&http.Client{Timeout: cfg.FetchTimeout()})
	site := sitetypes.New()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "init":
		return gitstore.Init(cfg.ContentDir, cfg.AuthorName, cfg.AuthorEmail)
	case "rebuild":
		return runRebuild(ctx, engine, site, rest)
	case "list":
		return runList(ctx, engine, site, rest, content.IndexQuery{Limit: *limit, Offset: *offset, OldestFirst: *oldest})
	case "show":
		return runShow(ctx, engine, site, rest)
	case "history":
		return runHistory(ctx, engine, rest, *historyN)
	case "watch":
		w := watcher.New(engine, site.All(), cfg.WatchRebuildInterval())
		slog.Info("watching for content changes", "dir", cfg.ContentDir)
		return w.Run(ctx)
	case "schema":
		if len(rest) != 1 {
			return errors.New("schema takes exactly one content type")
		}
		schema, err := sitetypes.DocumentSchema(rest[0])
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func setupLogging(level string) {
	ll := &slog.LevelVar{}
	switch level {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		ll.Set(slog.LevelInfo)
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)
}

func runRebuild(ctx context.Context, engine *content.Engine, site *sitetypes.Site, names []string) error {
	types := site.All()
	if len(names) > 0 {
		types = types[:0]
		for _, name := range names {
			cfg, ok := site.ByName(name)
			if !ok {
				return fmt.Errorf("unknown content type %q", name)
			}
			types = append(types, cfg)
		}
	}
	for _, cfg := range types {
		itemErrs, err := engine.RebuildIndex(ctx, cfg)
		if err != nil {
			return err
		}
		for _, ie := range itemErrs {
			fmt.Fprintf(os.Stderr, "skipped %s/%s: %v\n", cfg.ContentType, ie.Slug, ie.Err)
		}
		fmt.Printf("rebuilt %s (%d item errors)\n", cfg.ContentType, len(itemErrs))
	}
	return nil
}

func runList(ctx context.Context, engine *content.Engine, site *sitetypes.Site, args []string, q content.IndexQuery) error {
	if len(args) != 1 {
		return errors.New("list takes exactly one content type")
	}
	cfg, ok := site.ByName(args[0])
	if !ok {
		return fmt.Errorf("unknown content type %q", args[0])
	}
	page, err := engine.ReadIndex(ctx, cfg, q)
	if err != nil {
		return err
	}
	for _, e := range page.Entries {
		value, _ := json.Marshal(e.Value)
		date := time.UnixMilli(e.Key.Date).Format(time.DateOnly)
		fmt.Printf("%s  %-30s %s\n", date, e.Key.Slug, value)
	}
	fmt.Printf("total %d, more=%s\n", page.Total, strconv.FormatBool(page.More))
	return nil
}

func runShow(ctx context.Context, engine *content.Engine, site *sitetypes.Site, args []string) error {
	if len(args) != 2 {
		return errors.New("show takes a content type and a slug")
	}
	cfg, ok := site.ByName(args[0])
	if !ok {
		return fmt.Errorf("unknown content type %q", args[0])
	}
	doc, err := engine.Read(ctx, cfg, args[1])
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runHistory(ctx context.Context, engine *content.Engine, args []string, n int) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	commits, err := engine.Recorder().Log(ctx, path, n)
	if err != nil {
		return err
	}
	for _, c := range commits {
		fmt.Printf("%s  %s  %s <%s>  %s\n",
			c.Hash[:8], c.Date.Format(time.DateTime), c.Author, c.Email, c.Message)
	}
	return nil
}
