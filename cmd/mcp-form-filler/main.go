package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-form-filler/internal/config"
	"github.com/a3tai/mcp-form-filler/internal/filler"
	"github.com/a3tai/mcp-form-filler/internal/mcp"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging sends log output to stderr so it never mixes with the MCP protocol on stdout.
// Outside debug mode logging is discarded.
func setupLogging(cfg *config.Config) *log.Logger {
	if !cfg.IsDebug() {
		log.SetOutput(io.Discard)
		return log.New(io.Discard, "", 0)
	}
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	return log.New(os.Stderr, "filler: ", log.LstdFlags)
}

// newFillerService builds the fill service from the loaded configuration
func newFillerService(cfg *config.Config, logger *log.Logger) (*filler.Service, error) {
	return filler.NewService(filler.Options{
		Directory:    cfg.FormsDirectory,
		CatalogPath:  cfg.CatalogPath,
		OutputSuffix: cfg.OutputSuffix,
		MaxFileSize:  cfg.MaxFileSize,
		CacheSize:    cfg.CacheSize,
		Style:        cfg.Style(),
		Logger:       logger,
	})
}

// run serves until the client disconnects or a termination signal arrives
func run(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) error {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		cancel()
		return nil
	case err := <-serverErrCh:
		return err
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}
	log.Printf("Starting with configuration: %s", cfg.String())

	fillerService, err := newFillerService(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create form filler: %v\n", err)
		os.Exit(1)
	}

	server, err := mcp.NewServer(cfg, fillerService)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create MCP server: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel, server); err != nil {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP Form Filler\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
