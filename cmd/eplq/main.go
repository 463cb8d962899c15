// Command eplq seals points of interest into a store and answers range
// queries over them.
//
// Keys live only in the process, so points imported by one run cannot be
// opened by the next. Use -then-query to query right after an import.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/creasty/defaults"

	"github.com/kochabx/eplq/config"
	"github.com/kochabx/eplq/core/poi"
	"github.com/kochabx/eplq/log"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "eplq:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: eplq [-config file] <command> [flags]

commands:
  pubkey   [-pem]
  import   (-csv file | -osm extract [-bbox minlat,minlng,maxlat,maxlng] [-max n])
           [-then-query "lat,lng,radius[,category]"] [-requester id] [-max-results n]
  query    -csv file -q "lat,lng,radius[,category]" [-requester id] [-max-results n]
           imports into memory and queries in one go
  convert  -osm extract [-bbox ...] [-max n] [-out file.csv]
           extracts are .osm, .osm.gz, .osm.bz2, .osm.pbf or a .zip of them
`)
}

func run(args []string, stdout io.Writer) error {
	global := flag.NewFlagSet("eplq", flag.ContinueOnError)
	configPath := global.String("config", "", "settings file (yaml, json or toml)")
	global.Usage = func() { usage(global.Output()) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		usage(stdout)
		return nil
	}

	settings, err := loadSettings(*configPath)
	if err != nil {
		return err
	}
	logger, err := log.FromConfig(settings.Log)
	if err != nil {
		return err
	}
	defer logger.Close()
	log.SetGlobalLogger(logger)
	if settings.Watch && *configPath != "" {
		if err := watchLogLevel(*configPath, logger); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "pubkey":
		return cmdPubkey(ctx, settings, rest, stdout)
	case "import":
		return cmdImport(ctx, settings, rest, stdout)
	case "query":
		return cmdQuery(ctx, settings, rest, stdout)
	case "convert":
		return cmdConvert(ctx, rest, stdout)
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func loadSettings(path string) (*config.Settings, error) {
	if path == "" {
		s := &config.Settings{}
		if err := defaults.Set(s); err != nil {
			return nil, err
		}
		return s, nil
	}
	s, _, err := config.LoadSettings(filepath.Base(path), filepath.Dir(path))
	return s, err
}

// watchLogLevel reapplies log.level from path to logger whenever the file changes
func watchLogLevel(path string, logger *log.Logger) error {
	_, err := config.WatchSettings(filepath.Base(path), []string{filepath.Dir(path)}, func(s *config.Settings) {
		level := s.Log.ZerologLevel()
		logger.SetLevel(level)
		logger.Info().Str("level", level.String()).Msg("log level reloaded")
	}, config.WithLogger(logger.Component("config")))
	return err
}

func cmdPubkey(ctx context.Context, settings *config.Settings, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("pubkey", flag.ContinueOnError)
	asPEM := fs.Bool("pem", false, "print a PEM block instead of base64 DER")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newApp(ctx, settings, false)
	if err != nil {
		return err
	}
	defer app.close()

	key, err := app.service.PublicKey()
	if *asPEM {
		key, err = app.keys.PublicKeyPEM()
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, key)
	return err
}

type queryFlags struct {
	query      string
	requester  string
	maxResults int
}

func (q *queryFlags) register(fs *flag.FlagSet, name string) {
	fs.StringVar(&q.query, name, "", `predicate "lat,lng,radius[,category]"`)
	fs.StringVar(&q.requester, "requester", "cli", "requester identity recorded in the query log")
	fs.IntVar(&q.maxResults, "max-results", 0, "result cap, settings default when 0")
}

func cmdImport(ctx context.Context, settings *config.Settings, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	src := registerSource(fs)
	var q queryFlags
	q.register(fs, "then-query")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := src.read(ctx)
	if err != nil {
		return err
	}

	app, err := newApp(ctx, settings, false)
	if err != nil {
		return err
	}
	defer app.close()

	return importAndQuery(ctx, app, records, q, stdout)
}

func cmdQuery(ctx context.Context, settings *config.Settings, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	src := registerSource(fs)
	var q queryFlags
	q.register(fs, "q")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if q.query == "" {
		return fmt.Errorf("query: -q is required")
	}

	records, err := src.read(ctx)
	if err != nil {
		return err
	}

	app, err := newApp(ctx, settings, true)
	if err != nil {
		return err
	}
	defer app.close()

	return importAndQuery(ctx, app, records, q, stdout)
}

func importAndQuery(ctx context.Context, app *app, records []poi.Record, q queryFlags, stdout io.Writer) error {
	n, err := app.service.ImportPoints(ctx, records)
	if err != nil {
		return fmt.Errorf("imported %d of %d points: %w", n, len(records), err)
	}
	log.Info().Int("points", n).Msg("import finished")

	if q.query == "" {
		_, err = fmt.Fprintf(stdout, "imported %d points\n", n)
		return err
	}

	p, err := parsePredicate(q.query)
	if err != nil {
		return err
	}
	res, err := app.service.ExecuteRangeQuery(ctx, p, q.requester, q.maxResults)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func cmdConvert(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	src := registerSource(fs)
	out := fs.String("out", "", "output csv, stdout when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if src.osm == "" {
		return fmt.Errorf("convert: -osm is required")
	}

	records, err := src.read(ctx)
	if err != nil {
		return err
	}

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return poi.WriteCSV(w, records)
}
