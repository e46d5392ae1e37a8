// Package main is the entry point for the wcstore server.
//
// wcstore serves the content of a small site from JSON files in a data
// directory: four document collections with drafts, an announcement, a book
// excerpt and WebP images. Configuration is read from CLI flags, a .env file
// in the data directory and the credential file (config.json by default).
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lmittmann/tint"
	"github.com/maruel/wcstore/internal/auth"
	"github.com/maruel/wcstore/internal/media"
	"github.com/maruel/wcstore/internal/media/vips"
	"github.com/maruel/wcstore/internal/metrics"
	"github.com/maruel/wcstore/internal/server"
	"github.com/maruel/wcstore/internal/server/ipgeo"
	"github.com/maruel/wcstore/internal/server/ratelimit"
	"github.com/maruel/wcstore/internal/storage"
	"github.com/maruel/wcstore/internal/storage/history"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "wcstore: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	hashPassword := flag.Bool("hash-password", false, "Read a password from stdin, print its bcrypt hash and exit")
	httpAddr := flag.String("http", "localhost:8080", "Address to listen on (e.g., localhost:8080, :8080, 0.0.0.0:8080)")
	dataDir := flag.String("data-dir", "./data", "Data directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	configPath := flag.String("config", "", "Credential file, JSON or YAML (default <data-dir>/config.json)")
	geoDB := flag.String("geo-db", "", "Path to MaxMind MMDB file for IP geolocation (optional)")
	enableHistory := flag.Bool("history", false, "Record every change of the data directory as a git commit")
	vipsConcurrency := flag.Int("vips-concurrency", 0, "libvips worker threads, 0 for automatic")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}
	if *hashPassword {
		return printHash()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	slog.SetDefault(newLogger(ll, os.Getenv("JOURNAL_STREAM") != ""))

	if err := os.MkdirAll(*dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	env, err := loadDotEnv(*dataDir)
	if err != nil {
		return err
	}

	// Flags explicitly set win over .env.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	for name, dst := range map[string]*string{
		"http":      httpAddr,
		"log-level": logLevel,
		"config":    configPath,
		"geo-db":    geoDB,
	} {
		key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		if v := env[key]; !set[name] && v != "" {
			*dst = v
		}
	}
	if v := env["HISTORY"]; !set["history"] && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HISTORY in .env: %w", err)
		}
		*enableHistory = b
	}

	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", *logLevel)
	}

	// Normalize addr: ":8080" becomes "localhost:8080"
	addr := *httpAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	if *configPath == "" {
		*configPath = filepath.Join(*dataDir, "config.json")
	}
	if _, err := os.Stat(*configPath); errors.Is(err, os.ErrNotExist) {
		password, err := storage.CreateDefaultConfig(*configPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *configPath, err)
		}
		fmt.Fprintf(os.Stderr, "Created %s\n  username: admin\n  password: %s\nThe password is stored hashed and is not shown again.\n", *configPath, password)
	}
	configSrc := storage.NewFileConfig(*configPath)
	if _, err := configSrc.Load(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := storage.WatchConfig(ctx, configSrc); err != nil {
		return fmt.Errorf("failed to watch configuration: %w", err)
	}

	fileStore, err := storage.NewFileStore(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize file store: %w", err)
	}
	var recorder storage.Recorder
	var repo *history.Repo
	if *enableHistory {
		if repo, err = history.Open(ctx, fileStore.RootDir(), "wcstore", "wcstore@localhost"); err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		recorder = repo
		slog.InfoContext(ctx, "Change history enabled")
	}

	vips.Startup(*vipsConcurrency)
	defer vips.Shutdown()
	mediaStore, err := media.NewStore(fileStore.ImagesDir(), vips.Encoder{})
	if err != nil {
		return fmt.Errorf("failed to initialize image store: %w", err)
	}

	var geoChecker *ipgeo.Checker
	if *geoDB != "" {
		geoChecker, err = ipgeo.Open(*geoDB)
		if err != nil {
			return fmt.Errorf("failed to open geo database: %w", err)
		}
		defer func() { _ = geoChecker.Close() }()
		slog.InfoContext(ctx, "IP geolocation enabled", "db", *geoDB)
	}

	if err := watchExecutable(ctx, stop); err != nil {
		return fmt.Errorf("failed to watch executable: %w", err)
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	limits := ratelimit.DefaultConfig()
	defer limits.Close()

	documents := storage.NewDocumentService(fileStore, recorder)
	svc := &server.Services{
		Documents:     documents,
		Drafts:        storage.NewDraftService(fileStore, recorder),
		Search:        storage.NewSearchService(documents),
		Announcements: storage.NewAnnouncementService(fileStore, recorder),
		Book:          storage.NewBookService(fileStore),
		Tokens:        auth.NewTokenService(configSrc),
		Media:         mediaStore,
		History:       repo,
		Geo:           geoChecker,
	}
	buildVersion, _, _, _ := getBuildInfo()
	cfg := &server.Config{
		Version:    buildVersion,
		RateLimits: limits,
		Gatherer:   prometheus.DefaultGatherer,
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(svc, cfg),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Starting server", "addr", addr, "data", fileStore.RootDir(), "version", buildVersion)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.InfoContext(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.InfoContext(ctx, "Server stopped")
	}
	return nil
}

// newLogger returns a tint logger on stderr. Colors are only used on a
// terminal and timestamps are left to journald when running under systemd.
func newLogger(level slog.Leveler, underSystemd bool) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch {
			case a.Key == slog.TimeKey && len(groups) == 0:
				if underSystemd {
					return slog.Attr{}
				}
				return a
			case a.Key == "ip" && isLoopback(a.Value.String()):
				return slog.Attr{}
			case isZeroValue(a.Value):
				return slog.Attr{}
			}
			return a
		},
	}))
}

func isLoopback(ip string) bool {
	return ip == "127.0.0.1" || ip == "::1"
}

// isZeroValue reports attributes not worth printing.
func isZeroValue(v slog.Value) bool {
	switch v.Kind() {
	case slog.KindString:
		return v.String() == ""
	case slog.KindBool:
		return !v.Bool()
	case slog.KindInt64:
		return v.Int64() == 0
	case slog.KindUint64:
		return v.Uint64() == 0
	case slog.KindFloat64:
		return v.Float64() == 0
	case slog.KindDuration:
		return v.Duration() == 0
	case slog.KindTime:
		return v.Time().IsZero()
	case slog.KindAny:
		return v.Any() == nil
	default:
		return false
	}
}

// printHash reads one line from stdin and prints its bcrypt hash, ready to be
// pasted as admin.password.
func printHash() error {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprint(os.Stderr, "Password: ")
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("empty password")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("wcstore %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}

// loadDotEnv reads KEY=value lines from <dataDir>/.env. A missing file is not
// an error.
func loadDotEnv(dataDir string) (map[string]string, error) {
	env := make(map[string]string)
	content, err := os.ReadFile(filepath.Join(dataDir, ".env")) //nolint:gosec // G304: path is built from the data-dir flag
	if err != nil {
		if os.IsNotExist(err) {
			return env, nil
		}
		return nil, err
	}
	for line := range strings.SplitSeq(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if strings.HasPrefix(val, "'") || strings.HasSuffix(val, "'") {
			return nil, fmt.Errorf("single quotes are not supported in .env: %s", line)
		}
		if strings.HasPrefix(val, "\"") {
			unquoted, err := strconv.Unquote(val)
			if err != nil {
				return nil, fmt.Errorf("failed to unquote %s: %w", key, err)
			}
			val = unquoted
		}
		env[key] = val
	}
	return env, nil
}

// watchExecutable stops the server when the binary is rewritten, so a
// supervisor restarts the new build.
func watchExecutable(ctx context.Context, stop context.CancelFunc) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(exe); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
					slog.InfoContext(ctx, "Executable modified, initiating shutdown")
					stop()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching executable", "err", err)
			}
		}
	}()
	return nil
}
