package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/akos050607/SpendSmart/internal/expense"
	"github.com/akos050607/SpendSmart/internal/extraction"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Local .env is optional
	_ = godotenv.Load()

	fs := ff.NewFlagSet("spendsmart")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "spendsmart.db", "Database file path")
		provider     = fs.StringLong("provider", "openrouter", "Extraction provider: 'openrouter' or 'gemini'")
		apiKey       = fs.StringLong("api-key", "", "API key for the extraction provider (or set OPENROUTER_API_KEY / GEMINI_API_KEY)")
		baseURL      = fs.StringLong("base-url", "https://openrouter.ai/api/v1", "OpenAI-compatible API base URL")
		model        = fs.StringLong("model", "openai/gpt-4o-mini", "Model identifier for the openrouter provider")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-pro", "Model name for the gemini provider")
		maxEdge      = fs.IntLong("max-edge", extraction.DefaultMaxEdge, "Longest edge of normalized receipt images, in pixels")
		quality      = fs.IntLong("quality", extraction.DefaultQuality, "JPEG quality for normalized receipt images")
		homeCurrency = fs.StringLong("home-currency", "HUF", "Currency assumed when a receipt shows none")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SPENDSMART"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...")
	store, err := expense.NewBoltStore(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize extractor based on provider. A missing credential degrades
	// to an always-failing extractor rather than aborting: the dashboard and
	// manual entry keep working without one.
	var extractor extraction.Extractor
	switch *provider {
	case "openrouter":
		key := *apiKey
		if key == "" {
			key = os.Getenv("OPENROUTER_API_KEY")
		}
		if key == "" {
			slog.Warn("No API key configured; receipt scanning disabled. Set --api-key or OPENROUTER_API_KEY")
			extractor = extraction.Disabled{}
			break
		}
		slog.Info("Initializing OpenRouter extractor...", "model", *model)
		extractor = extraction.NewOpenRouter(*baseURL, key, *model)
	case "gemini":
		key := *apiKey
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
		if key == "" {
			slog.Warn("No API key configured; receipt scanning disabled. Set --api-key or GEMINI_API_KEY")
			extractor = extraction.Disabled{}
			break
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		extractor, err = extraction.NewGemini(key, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid provider", "provider", *provider, "valid", "openrouter or gemini")
		os.Exit(1)
	}
	defer extractor.Close()

	// Initialize pipeline and service
	normalizer := extraction.NewNormalizer(*maxEdge, *quality)
	service := expense.NewService(store, normalizer, extractor, *homeCurrency)

	// Initialize server
	basicAuth := expense.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := expense.NewServer(service, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
