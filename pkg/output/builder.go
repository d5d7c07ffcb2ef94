// Package output provides the CLI builder for wiring up output dispatching.
package output

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/hooks"
	"github.com/bidlens/bidlens/pkg/output/writers"
)

// Config configures the output dispatcher based on CLI flags.
type Config struct {
	// File exports
	JSONExport  string
	JSONLExport string
	CSVExport   string
	MDExport    string
	PDFExport   string

	// Template export renders a custom template to a file. TemplateFile
	// points at a template on disk; TemplateName selects a built-in.
	TemplateExport string
	TemplateFile   string
	TemplateName   string

	// Streaming
	JSONMode bool

	// Content
	BestOnly     bool
	OmitFindings bool

	// Console
	TableMode string
	Silent    bool
	NoColor   bool

	// Hooks
	WebhookURL  string
	WebhookAll  bool
	MetricsPort int

	// OpenTelemetry
	OTelEndpoint string
	OTelInsecure bool

	// History storage
	HistoryPath string
	HistoryTags []string

	// DebugEvents mirrors the event stream to the structured logger.
	DebugEvents bool
	Logger      *slog.Logger

	// Version stamped on run summaries
	Version string
}

// ActiveExports lists the enabled file export paths, for echoing into
// the run configuration of the start event.
func (c Config) ActiveExports() []string {
	var exports []string
	add := func(name, path string) {
		if path != "" {
			exports = append(exports, name)
		}
	}
	add("json", c.JSONExport)
	add("jsonl", c.JSONLExport)
	add("csv", c.CSVExport)
	add("markdown", c.MDExport)
	add("pdf", c.PDFExport)
	add("template", c.TemplateExport)
	return exports
}

// BuildDispatcher creates a dispatcher configured with writers and hooks based on the config.
// It opens all output files and registers the appropriate writers and hooks.
// The caller is responsible for calling Close() on the dispatcher when done.
func BuildDispatcher(cfg Config) (*dispatcher.Dispatcher, error) {
	d := dispatcher.New(dispatcher.Config{
		Async: true, // hooks must not stall writer output
	})

	// Track opened files for cleanup on error
	var openedFiles []*os.File
	cleanup := func() {
		for _, f := range openedFiles {
			f.Close()
		}
	}

	// Helper to open a file for writing
	openFile := func(path string) (*os.File, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
		}
		openedFiles = append(openedFiles, f)
		return f, nil
	}

	// === FILE WRITERS ===

	// JSON export
	if cfg.JSONExport != "" {
		f, err := openFile(cfg.JSONExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		writer := writers.NewJSONWriter(f, writers.JSONOptions{
			Pretty: true,
		})
		d.RegisterWriter(writer)
	}

	// JSONL export (streaming)
	if cfg.JSONLExport != "" {
		f, err := openFile(cfg.JSONLExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		writer := writers.NewJSONLWriter(f, writers.JSONLOptions{
			BestOnly:     cfg.BestOnly,
			OmitFindings: cfg.OmitFindings,
		})
		d.RegisterWriter(writer)
	}

	// CSV export
	if cfg.CSVExport != "" {
		f, err := openFile(cfg.CSVExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		writer := writers.NewCSVWriter(f, writers.CSVOptions{
			IncludeHeader: true,
		})
		d.RegisterWriter(writer)
	}

	// Markdown export
	if cfg.MDExport != "" {
		f, err := openFile(cfg.MDExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		writer := writers.NewMarkdownWriter(f, writers.MarkdownConfig{
			Flavor:               "github",
			SortBy:               "rank",
			IncludeTOC:           true,
			IncludeMatrix:        true,
			IncludeFindings:      !cfg.OmitFindings,
			ShowExecutiveSummary: true,
			ShowScoreBars:        true,
		})
		d.RegisterWriter(writer)
	}

	// PDF export
	if cfg.PDFExport != "" {
		f, err := openFile(cfg.PDFExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		writer := writers.NewPDFWriter(f, writers.PDFConfig{
			IncludeDetails: true,
			PageSize:       "A4",
			Orientation:    "P",
		})
		d.RegisterWriter(writer)
	}

	// Template export
	if cfg.TemplateExport != "" {
		f, err := openFile(cfg.TemplateExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		writer, err := writers.NewTemplateWriter(f, writers.TemplateConfig{
			TemplatePath: cfg.TemplateFile,
			BuiltIn:      cfg.TemplateName,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create template writer: %w", err)
		}
		d.RegisterWriter(writer)
	}

	// === CONSOLE OUTPUT ===

	// Table writer for console output (unless silent or JSON mode)
	if !cfg.Silent && !cfg.JSONMode {
		writer := writers.NewTableWriter(os.Stdout, writers.TableConfig{
			Mode:     cfg.TableMode,
			NoColor:  cfg.NoColor,
			BestOnly: cfg.BestOnly,
		})
		d.RegisterWriter(writer)
	}

	// JSON streaming mode (to stdout)
	if cfg.JSONMode {
		writer := writers.NewJSONLWriter(os.Stdout, writers.JSONLOptions{
			BestOnly:     cfg.BestOnly,
			OmitFindings: cfg.OmitFindings,
		})
		d.RegisterWriter(writer)
	}

	// === HOOKS ===

	// Generic webhook
	if cfg.WebhookURL != "" {
		hook := hooks.NewWebhookHook(cfg.WebhookURL, hooks.WebhookOptions{
			BestOnly: !cfg.WebhookAll,
			Logger:   cfg.Logger,
		})
		d.RegisterHook(hook)
	}

	// Prometheus metrics
	if cfg.MetricsPort > 0 {
		hook, err := hooks.NewPrometheusHook(hooks.PrometheusOptions{
			Port:   cfg.MetricsPort,
			Path:   "/metrics",
			Logger: cfg.Logger,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create Prometheus hook: %w", err)
		}
		d.RegisterHook(hook)
	}

	// OpenTelemetry
	if cfg.OTelEndpoint != "" {
		hook, err := hooks.NewOTelHook(hooks.OTelOptions{
			Endpoint:    cfg.OTelEndpoint,
			ServiceName: defaults.ToolName,
			Insecure:    cfg.OTelInsecure,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create OpenTelemetry hook: %w", err)
		}
		d.RegisterHook(hook)
	}

	// History storage
	if cfg.HistoryPath != "" {
		hook, err := hooks.NewHistoryHook(hooks.HistoryHookOptions{
			StorePath: cfg.HistoryPath,
			Tags:      cfg.HistoryTags,
			Logger:    cfg.Logger,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create history hook: %w", err)
		}
		d.RegisterHook(hook)
	}

	// Event debug logging
	if cfg.DebugEvents {
		d.RegisterHook(hooks.NewLoggerHook(cfg.Logger))
	}

	return d, nil
}
