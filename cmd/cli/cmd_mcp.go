package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bidlens/bidlens/pkg/duration"
	"github.com/bidlens/bidlens/pkg/mcpserver"
	"github.com/bidlens/bidlens/pkg/output/events"
	"github.com/bidlens/bidlens/pkg/ui"
)

const mcpUsageLine = "bidlens mcp [-stdio | -http <addr>] [flags]"

// runMCP executes the mcp subcommand, exposing the comparison engine to
// MCP clients over stdio or streamable HTTP.
func runMCP() {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)

	src := &SourceFlags{}
	src.Register(fs)

	stdio := fs.Bool("stdio", true, "Serve MCP over stdio (default; for IDE integrations)")
	httpAddr := fs.String("http", envOrDefault("BIDLENS_HTTP_ADDR", ""), "Serve MCP over streamable HTTP on this address (e.g. :8019)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n\n", mcpUsageLine)
		fmt.Fprintf(os.Stderr, "Run the MCP server so agents can list, inspect, compare, and rank\n")
		fmt.Fprintf(os.Stderr, "bid reports through tool calls.\n\n")
		fmt.Fprintf(os.Stderr, "Transports:\n")
		fmt.Fprintf(os.Stderr, "  stdio            Default. Wire the command into an IDE or agent runtime.\n")
		fmt.Fprintf(os.Stderr, "  streamable HTTP  Pass -http <addr>. Mounts /mcp plus a /health probe.\n\n")
		fmt.Fprintf(os.Stderr, "Environment:\n")
		fmt.Fprintf(os.Stderr, "  BIDLENS_HTTP_ADDR    Default for -http\n")
		fmt.Fprintf(os.Stderr, "  BIDLENS_SERVICE_URL  Default for -service\n")
		fmt.Fprintf(os.Stderr, "  BIDLENS_REPORT_FILE  Default for -file\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  bidlens mcp -file reports.json\n")
		fmt.Fprintf(os.Stderr, "  bidlens mcp -http :8019 -service http://reports.internal:8420\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	fs.Parse(os.Args[2:])
	if *httpAddr == "" && !*stdio {
		exitWithUsage("With -stdio=false an -http address is required.", mcpUsageLine)
	}

	applyConfigFile(fs, src, nil)
	if src.Service == "" && src.File == "" {
		src.Service = os.Getenv("BIDLENS_SERVICE_URL")
		src.File = os.Getenv("BIDLENS_REPORT_FILE")
	}

	source, info, err := src.Build()
	if err != nil {
		exitClassified("Opening report source", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := mcpserver.New(&mcpserver.Config{Source: source, Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// File sources are fully loaded at startup, so a count proves the
	// catalog is usable before any client connects. Service sources are
	// not dialed here; the first tool call surfaces connectivity errors.
	if info.Kind == events.SourceFile {
		vctx, cancel := context.WithTimeout(ctx, duration.HTTPHealth)
		reports, err := source.List(vctx)
		cancel()
		if err != nil {
			exitClassified("Validating report file", err)
		}
		fmt.Fprintf(os.Stderr, "%s serving %d report(s) from %s\n", ui.UserAgent(), len(reports), info.Detail)
	} else {
		fmt.Fprintf(os.Stderr, "%s proxying reports from %s\n", ui.UserAgent(), info.Detail)
	}
	srv.MarkReady()

	if *httpAddr != "" {
		serveMCPHTTP(ctx, srv, *httpAddr, logger)
		return
	}

	if err := srv.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		exitWithError("MCP stdio server: %v", err)
	}
}

// serveMCPHTTP runs the streamable HTTP transport until ctx is
// canceled, then drains in-flight requests.
func serveMCPHTTP(ctx context.Context, srv *mcpserver.Server, addr string, logger *slog.Logger) {
	server := &http.Server{
		Addr:              addr,
		Handler:           srv.HTTPHandler(),
		ReadHeaderTimeout: duration.ServeReadHeader,
		ReadTimeout:       duration.ServeRead,
		// WriteTimeout stays zero: the streamable transport holds
		// response streams open for server-to-client messages.
		WriteTimeout:   0,
		IdleTimeout:    duration.ServeIdle,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "Shutting down MCP server...")
		sdCtx, cancel := context.WithTimeout(context.Background(), duration.ServeShutdown)
		defer cancel()
		if err := server.Shutdown(sdCtx); err != nil {
			logger.Error("mcp server shutdown", "error", err)
		}
	}()

	fmt.Fprintf(os.Stderr, "MCP server listening on %s\n", addr)
	fmt.Fprintf(os.Stderr, "  endpoint: http://%s/mcp\n", displayAddr(addr))
	fmt.Fprintf(os.Stderr, "  health:   http://%s/health\n", displayAddr(addr))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		exitWithError("MCP HTTP server: %v", err)
	}
}

// displayAddr turns a listen address like ":8019" into one a client can
// paste into a URL.
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

// envOrDefault reads an environment variable, falling back when unset
// or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
