// Package main is the studycast CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/studycast/internal/cli"
	"github.com/hyperjump/studycast/internal/config"
	"github.com/hyperjump/studycast/internal/extract"
	"github.com/hyperjump/studycast/internal/fileid"
	"github.com/hyperjump/studycast/internal/importer"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/pipeline"
	"github.com/hyperjump/studycast/internal/server"
	"github.com/hyperjump/studycast/internal/watcher"
	"github.com/hyperjump/studycast/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/studycast/config.yaml"
	defaultServerURL  = "http://localhost:8080"
	requestTimeout    = 60 * time.Second
	generateTimeout   = 30 * time.Minute
)

// loadConfig loads config from path. When path is the default, a config.yaml in
// the current directory takes precedence so a checkout runs with its own config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "import":
		runImport()
	case "generate":
		runGenerate()
	case "search":
		runSearch()
	case "download":
		runDownload()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("studycast version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// direct holds what a command running without a server needs.
type direct struct {
	cfg        *config.Config
	logger     *zap.Logger
	components *Components
}

func (d *direct) Close() {
	d.components.Close()
	_ = d.logger.Sync()
}

// openDirect loads config and initializes components for direct storage access.
func openDirect(configPath string) *direct {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	return &direct{cfg: cfg, logger: logger, components: components}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (pipeline stages, inbox imports, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	deps := server.Deps{
		Storage:   components.Storage,
		Importer:  components.Importer,
		Generator: components.Generator,
		Searcher:  components.Engine,
		Packager:  components.Assembler,
		Metrics:   components.Metrics,
	}

	var inbox *watcher.Watcher
	if len(cfg.Inbox.Directories) > 0 {
		inbox = watcher.New(components.Importer, cfg.Inbox.Owner, cfg.Inbox.Directories,
			cfg.Inbox.RecursiveOrDefault(), watcher.WithLogger(logger))
		if err := inbox.Start(ctx); err != nil {
			logger.Fatal("Failed to start inbox watcher", zap.Error(err))
		}
		defer inbox.Stop()
		deps.Inbox = inbox
		logger.Info("inbox watcher started", zap.Strings("directories", inbox.Directories()))
	}

	watchdog := pipeline.NewWatchdog(components.Storage, cfg.Generation.StaleAfter,
		cfg.Generation.WatchdogSchedule, components.Metrics, logger)
	if err := watchdog.Start(); err != nil {
		logger.Fatal("Failed to start watchdog", zap.Error(err))
	}
	defer watchdog.Stop()

	srv := server.NewServer(deps, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// argsReorder moves any flags (and their values) that appear after positional
// arguments to the front so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "studycast search pod-1 photosynthesis --output json"
// would otherwise leave --output unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// configPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func configPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if v, ok := strings.CutPrefix(a, "-config="); ok {
			return v
		}
	}
	return defaultPath
}

// splitIDs parses a comma separated id list, dropping blanks and duplicates.
func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		id := strings.TrimSpace(part)
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// importExtensions returns the importable extensions from the config at path,
// or the built-in defaults when it cannot be loaded.
func importExtensions(path string) []string {
	if cfg, _, err := loadConfig(path); err == nil {
		return cfg.Inbox.Extensions
	}
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	return cfg.Inbox.Extensions
}

// collectFiles lists the regular files to import from path. A file is taken as
// given; a directory is walked and filtered by exts, skipping hidden entries.
func collectFiles(path string, exts []string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != path && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != path && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && slices.Contains(exts, strings.ToLower(filepath.Ext(p))) {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

func runImport() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage when server is not running)")
	owner := fs.String("owner", models.DefaultOwner, "owner id the documents are stored for")
	language := fs.String("language", "", "document language, e.g. en (empty = detect during generation)")
	recursive := fs.Bool("recursive", true, "import subdirectories")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Usage: studycast import [flags] <file-or-directory>...")
		os.Exit(1)
	}

	if *serverURL == "" {
		d := openDirect(*configPath)
		defer d.Close()
		im := d.components.Importer
		if *language != "" {
			im = importer.New(d.components.Storage, extract.NewExtractor(),
				importer.WithExtensions(d.cfg.Inbox.Extensions),
				importer.WithLanguage(*language),
				importer.WithMetrics(d.components.Metrics),
				importer.WithLogger(d.logger),
			)
		}
		ctx := context.Background()
		for _, path := range fs.Args() {
			info, err := os.Stat(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to stat path: %v\n", err)
				os.Exit(1)
			}
			if info.IsDir() {
				n, err := im.ImportDirectory(ctx, *owner, path, *recursive)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Importing directory failed: %v\n", err)
					os.Exit(1)
				}
				fmt.Printf("Imported %d file(s) from %s\n", n, path)
				continue
			}
			doc, written, err := im.ImportFile(ctx, *owner, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
				os.Exit(1)
			}
			if written {
				fmt.Printf("Document imported: %s (%s)\n", doc.ID, doc.Title)
			} else {
				fmt.Printf("Document unchanged: %s (%s)\n", doc.ID, doc.Title)
			}
		}
		return
	}

	client := newAPIClient(*serverURL, *owner, requestTimeout)
	exts := importExtensions(*configPath)
	extractor := extract.NewExtractor()
	failed := 0
	for _, path := range fs.Args() {
		files, err := collectFiles(path, exts, *recursive)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
		for _, file := range files {
			abs, err := filepath.Abs(file)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", file, err)
				failed++
				continue
			}
			extracted, err := extractor.Extract(abs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", file, err)
				failed++
				continue
			}
			doc, err := client.ImportDocument(context.Background(), &models.DocumentInput{
				ID:        fileid.ForPath(*owner, abs),
				Title:     extracted.Title,
				Content:   extracted.Text,
				PageCount: extracted.PageCount,
				Language:  *language,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Import of %s failed: %v\n", file, err)
				failed++
				continue
			}
			fmt.Printf("Document imported: %s (%s)\n", doc.ID, doc.Title)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runGenerate() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = run the pipeline in-process)")
	owner := fs.String("owner", models.DefaultOwner, "owner id of the documents")
	documents := fs.String("documents", "", "comma separated document ids (positional ids are appended)")
	duration := fs.Int("duration", 0, "target duration in minutes (0 = configured default)")
	language := fs.String("language", "", "podcast language (empty = detected)")
	style := fs.String("style", "", "free-form style hint for the script")
	voice := fs.String("voice", "", "voice provider: openai or gemini (empty = configured default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ids := splitIDs(*documents + "," + strings.Join(fs.Args(), ","))
	if len(ids) == 0 {
		fmt.Println("Usage: studycast generate [flags] <document-id>...")
		os.Exit(1)
	}
	req := models.GenerateRequest{
		OwnerID:        *owner,
		DocumentIDs:    ids,
		TargetDuration: *duration,
		Language:       *language,
		Style:          *style,
		VoiceProvider:  models.VoiceProvider(*voice),
	}

	var summary *models.GenerateSummary
	if *serverURL != "" {
		summary, err = newAPIClient(*serverURL, *owner, generateTimeout).Generate(context.Background(), req)
	} else {
		d := openDirect(*configPath)
		defer d.Close()
		var podcast *models.IntelligentPodcast
		podcast, err = d.components.Generator.Generate(context.Background(), req)
		if err == nil {
			summary = podcast.Summary()
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteGenerateSummary(os.Stdout, summary, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: studycast search [flags] <podcast-id> <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
By default the query is matched against the podcast's concepts and returns the
segments that discuss them. Use --transcript for a keyword search over the
spoken text; typos are tolerated and a corrected query is suggested when
nothing matches.

Examples:
  studycast search 3f2a... light reactions
  studycast search --transcript 3f2a... "calvin cycle"
  studycast search --output json 3f2a... chlorophyll
`)
}

func runSearch() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage when server is not running)")
	owner := fs.String("owner", models.DefaultOwner, "owner id of the podcast")
	transcript := fs.Bool("transcript", false, "keyword search over the transcript instead of concepts")
	limit := fs.Int("limit", 10, "number of transcript results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(args)

	if fs.NArg() < 2 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	podcastID := fs.Arg(0)
	query := buildSearchQuery(fs.Args()[1:])
	if query == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx := context.Background()

	if *serverURL != "" {
		client := newAPIClient(*serverURL, *owner, requestTimeout)
		if *transcript {
			response, err := client.SearchTranscript(ctx, podcastID, query, *limit)
			exitOnSearchError(err)
			exitOnOutputError(cli.WriteTranscriptResults(os.Stdout, response, format))
			return
		}
		response, err := client.Search(ctx, podcastID, query)
		exitOnSearchError(err)
		exitOnOutputError(cli.WriteSearchResults(os.Stdout, response, format))
		return
	}

	// Direct storage access (when server is not running).
	d := openDirect(*configPath)
	defer d.Close()
	podcast, err := d.components.Storage.GetPodcast(ctx, *owner, podcastID)
	exitOnSearchError(err)
	if *transcript {
		response, err := d.components.Engine.SearchTranscript(ctx, podcast.ID, query, *limit)
		exitOnSearchError(err)
		exitOnOutputError(cli.WriteTranscriptResults(os.Stdout, response, format))
		return
	}
	response, err := d.components.Engine.Search(ctx, podcast, query)
	exitOnSearchError(err)
	exitOnOutputError(cli.WriteSearchResults(os.Stdout, response, format))
}

func exitOnSearchError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
}

func exitOnOutputError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runDownload() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = assemble from direct storage)")
	owner := fs.String("owner", models.DefaultOwner, "owner id of the podcast")
	format := fs.String("format", "wav", "download format: wav (single file) or zip (clips, transcript and metadata)")
	outDir := fs.String("out", ".", "directory to write the download into")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Println("Usage: studycast download [flags] <podcast-id>")
		os.Exit(1)
	}
	if *format != "wav" && *format != "zip" {
		fmt.Fprintf(os.Stderr, "Unknown format %q; use wav or zip\n", *format)
		os.Exit(1)
	}
	podcastID := fs.Arg(0)
	ctx := context.Background()

	tmp, err := os.CreateTemp(*outDir, ".studycast-download-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output file: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(tmp.Name())

	var name string
	if *serverURL != "" {
		name, err = newAPIClient(*serverURL, *owner, generateTimeout).Download(ctx, podcastID, *format, tmp)
	} else {
		name, err = downloadDirect(ctx, *configPath, *owner, podcastID, *format, tmp)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Download failed: %v\n", err)
		os.Exit(1)
	}
	target := filepath.Join(*outDir, filepath.Base(name))
	if err := os.Rename(tmp.Name(), target); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", target, err)
		os.Exit(1)
	}
	fmt.Printf("Saved %s\n", target)
}

func downloadDirect(ctx context.Context, configPath, owner, podcastID, format string, f *os.File) (string, error) {
	d := openDirect(configPath)
	defer d.Close()
	podcast, err := d.components.Storage.GetPodcast(ctx, owner, podcastID)
	if err != nil {
		return "", err
	}
	build := d.components.Assembler.BuildWAV
	if format == "zip" {
		build = d.components.Assembler.BuildZip
	}
	dl, err := build(ctx, podcast)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(dl.Data); err != nil {
		return "", err
	}
	return dl.Filename, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx := context.Background()

	var status map[string]any
	if *serverURL != "" {
		status, err = newAPIClient(*serverURL, "", requestTimeout).Status(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		d := openDirect(*configPath)
		defer d.Close()
		docs, err := d.components.Storage.CountDocuments(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		podcasts, err := d.components.Storage.CountPodcasts(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = map[string]any{"documents": docs, "podcasts": podcasts}
	}

	if format == cli.OutputJSON {
		exitOnOutputError(cli.WriteJSON(os.Stdout, status))
		return
	}
	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Printf("%-18s %v\n", k+":", status[k])
	}
}

func printUsage() {
	fmt.Println(`studycast - Turn study documents into narrated podcasts

Usage:
  studycast server [flags]                       Start the HTTP server
  studycast import [flags] <file-or-dir>...      Import study documents
  studycast generate [flags] <document-id>...    Generate a podcast
  studycast search [flags] <podcast-id> <query>  Search a podcast's concepts or transcript
  studycast download [flags] <podcast-id>        Download a podcast as WAV or zip
  studycast status [flags]                       Show document and podcast counts
  studycast version                              Show version
  studycast help                                 Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/studycast/config.yaml)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "")
                     to work on direct storage when the server is not running.
  --owner string     Owner id sent as X-User-ID (default: local)
  --output string    Output format: text or json

Server Flags:
  --debug            Enable debug logging

Generate Flags:
  --documents string  Comma separated document ids
  --duration int      Target duration in minutes
  --language string   Podcast language
  --style string      Style hint for the script
  --voice string      Voice provider: openai or gemini

Search Flags:
  --transcript       Keyword search over the transcript
  --limit int        Number of transcript results (default: 10)

Download Flags:
  --format string    wav or zip (default: wav)
  --out string       Output directory (default: .)`)
}
