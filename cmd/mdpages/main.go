// Package main is the entry point for the mdpages server.
//
// mdpages stores pages submitted over HTTP as files under a public directory
// and serves them back read-only. In wiki mode each page is kept as a
// markdown source plus its HTML rendering. Configuration is read from CLI
// flags, a .env file and server_config.yaml in the data directory.
package main

import (
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
	"github.com/maruel/mdpages/internal/server"
	"github.com/maruel/mdpages/internal/server/handlers"
	"github.com/maruel/mdpages/internal/server/ratelimit"
	"github.com/maruel/mdpages/internal/server/reqctx"
	"github.com/maruel/mdpages/internal/storage"
	"github.com/maruel/mdpages/internal/storage/content"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	modeContent = "content"
	modeWiki    = "wiki"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "mdpages: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	httpAddr := flag.String("http", "localhost:8080", "Address to listen on (e.g., localhost:8080, :8080, 0.0.0.0:8080)")
	dataDir := flag.String("data-dir", "./data", "Data directory; files are stored under <data-dir>/public")
	mode := flag.String("mode", modeWiki, "Storage mode: content (one raw file per page) or wiki (markdown source plus HTML rendering)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	tlsCert := flag.String("tls-cert", "", "TLS certificate file; serves HTTPS when set with -tls-key")
	tlsKey := flag.String("tls-key", "", "TLS private key file")
	trustedProxy := flag.String("trusted-proxy", "", "Comma separated IPs or CIDRs of reverse proxies whose X-Forwarded-For and X-Real-IP headers are trusted")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	slog.SetDefault(newLogger(ll))

	if err := os.MkdirAll(*dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	env, err := loadDotEnv(*dataDir)
	if err != nil {
		return err
	}

	// Override with .env file values if not explicitly set via flags
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	applyEnv(set, env, map[string]*string{
		"http":          httpAddr,
		"mode":          mode,
		"log-level":     logLevel,
		"tls-cert":      tlsCert,
		"tls-key":       tlsKey,
		"trusted-proxy": trustedProxy,
	})

	if err := setLogLevel(ll, *logLevel); err != nil {
		return err
	}
	if (*tlsCert == "") != (*tlsKey == "") {
		return errors.New("tls-cert and tls-key must both be set or both be empty")
	}
	proxies, err := reqctx.ParseProxies(*trustedProxy)
	if err != nil {
		return err
	}
	// Normalize addr: ":8080" becomes "localhost:8080"
	addr := *httpAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	// Load server_config.yaml for limits (creates with defaults if missing)
	serverCfg, err := storage.LoadServerConfig(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", storage.ServerConfigFile, err)
	}

	publicDir := filepath.Join(*dataDir, "public")
	editor, err := newEditor(*mode, publicDir, serverCfg.StrictIdentifiers)
	if err != nil {
		return err
	}

	// Watch own executable for modifications (for development restarts)
	if err := watchExecutable(ctx, stop); err != nil {
		return fmt.Errorf("failed to watch executable: %w", err)
	}

	limits := ratelimit.NewConfig(serverCfg.RateLimits)
	defer limits.Close()

	buildVersion, _, _, _ := getBuildInfo()
	httpServer := &http.Server{
		Addr: addr,
		Handler: server.NewRouter(&server.RouterConfig{
			Editor:    editor,
			PublicDir: publicDir,
			Version:   buildVersion,
			Mode:      *mode,
			Options: server.Options{
				MaxRequestBodyBytes: serverCfg.MaxRequestBodyBytes,
				RateLimits:          limits,
				TrustedProxies:      proxies,
			},
		}),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		useTLS := *tlsCert != ""
		slog.InfoContext(ctx, "Starting server", "addr", addr, "mode", *mode, "public", publicDir, "tls", useTLS, "version", buildVersion)
		if useTLS {
			serverErr <- httpServer.ListenAndServeTLS(*tlsCert, *tlsKey)
		} else {
			serverErr <- httpServer.ListenAndServe()
		}
	}()

	// Wait for either context cancellation or server error
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		// Graceful shutdown
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

// newEditor builds the stores for mode under publicDir.
func newEditor(mode, publicDir string, strict bool) (handlers.Editor, error) {
	switch mode {
	case modeContent:
		store, err := storage.NewFileStore(publicDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		return content.NewDocumentService(store, content.WithStrictIdentifiers(strict)), nil
	case modeWiki:
		edit, err := storage.NewFileStore(filepath.Join(publicDir, "edit"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize source store: %w", err)
		}
		pages, err := storage.NewFileStore(filepath.Join(publicDir, "pages"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rendering store: %w", err)
		}
		return content.NewPageService(edit, pages, content.WithStrictIdentifiers(strict)), nil
	default:
		return nil, fmt.Errorf("unknown mode: %q", mode)
	}
}

func newLogger(ll *slog.LevelVar) *slog.Logger {
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	return slog.New(reqctx.NewLogHandler(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			if a.Key == "ip" {
				if v := a.Value.String(); v == "127.0.0.1" || v == "::1" {
					return slog.Attr{}
				}
			}
			skip := false
			switch t := a.Value.Any().(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case uint64:
				skip = t == 0
			case int64:
				skip = t == 0
			case float64:
				skip = t == 0
			case time.Time:
				skip = t.IsZero()
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	})))
}

func setLogLevel(ll *slog.LevelVar, level string) error {
	switch level {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
		ll.Set(slog.LevelInfo)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", level)
	}
	return nil
}

// applyEnv copies env values into flags that were not set on the command line.
//
// The env key is the flag name upper-cased with '-' replaced by '_'.
func applyEnv(set map[string]bool, env map[string]string, flags map[string]*string) {
	for name, dst := range flags {
		if set[name] {
			continue
		}
		if v := env[strings.ReplaceAll(strings.ToUpper(name), "-", "_")]; v != "" {
			*dst = v
		}
	}
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("mdpages %s\n", version)
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

func loadDotEnv(dataDir string) (map[string]string, error) {
	env := make(map[string]string)
	path := filepath.Join(dataDir, ".env")
	envContent, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir flag, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return env, nil
		}
		return nil, err
	}

	for line := range strings.SplitSeq(string(envContent), "\n") {
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
			if strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
				return nil, fmt.Errorf("single quotes are not supported for wrapping in .env: %s", line)
			}
			return nil, fmt.Errorf("unbalanced single quotes in .env: %s", line)
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

// watchExecutable watches the current executable for modifications and calls
// stop to trigger graceful shutdown when detected. This enables seamless
// restarts during development.
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
