// This file contains unified output flag handling for the commands
// that replay runs through the event pipeline (compare, rank).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bidlens/bidlens/pkg/config"
	"github.com/bidlens/bidlens/pkg/output"
	"github.com/bidlens/bidlens/pkg/ui"
)

// OutputFlags defines all output-related CLI flags: file exports,
// console presentation, and event hooks.
type OutputFlags struct {
	// File exports
	JSONExport  string
	JSONLExport string
	CSVExport   string
	MDExport    string
	PDFExport   string

	// Template export
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
	WebhookURL   string
	WebhookAll   bool
	MetricsPort  int
	OTelEndpoint string
	OTelInsecure bool

	// History storage
	HistoryPath string
	HistoryTags string

	// Diagnostics
	DebugEvents bool
}

// Register binds all output flags to fs.
func (o *OutputFlags) Register(fs *flag.FlagSet) {
	// File exports
	fs.StringVar(&o.JSONExport, "json-export", "", "Export the run to a JSON file")
	fs.StringVar(&o.JSONLExport, "jsonl-export", "", "Export the event stream to a JSONL file")
	fs.StringVar(&o.CSVExport, "csv-export", "", "Export the ranking to a CSV file")
	fs.StringVar(&o.MDExport, "md-export", "", "Export a Markdown comparison document")
	fs.StringVar(&o.PDFExport, "pdf-export", "", "Export a PDF comparison report")
	fs.StringVar(&o.TemplateExport, "template-export", "", "Render a template to a file")
	fs.StringVar(&o.TemplateFile, "template-file", "", "Go template file for -template-export")
	fs.StringVar(&o.TemplateName, "template-name", "", "Built-in template for -template-export")

	// Streaming
	fs.BoolVar(&o.JSONMode, "json", false, "Stream events as JSONL to stdout")
	fs.BoolVar(&o.JSONMode, "j", false, "Stream events as JSONL to stdout (alias)")

	// Content
	fs.BoolVar(&o.BestOnly, "best-only", false, "Only emit the best opportunity")
	fs.BoolVar(&o.OmitFindings, "omit-findings", false, "Omit red flags and notes from output")

	// Console
	fs.StringVar(&o.TableMode, "table", "", "Console table mode: summary, detailed, minimal, streaming")
	fs.BoolVar(&o.Silent, "silent", false, "Silent mode - no console output")
	fs.BoolVar(&o.Silent, "s", false, "Silent mode (alias)")
	fs.BoolVar(&o.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&o.NoColor, "nc", false, "No color (alias)")

	// Hooks
	fs.StringVar(&o.WebhookURL, "webhook", "", "Webhook URL for run notifications")
	fs.BoolVar(&o.WebhookAll, "webhook-all", false, "Send every event to the webhook (default: summary only)")
	fs.IntVar(&o.MetricsPort, "metrics-port", 0, "Prometheus metrics port (0 = disabled)")
	fs.StringVar(&o.OTelEndpoint, "otel-endpoint", "", "OpenTelemetry OTLP/gRPC endpoint")
	fs.BoolVar(&o.OTelInsecure, "otel-insecure", false, "Use an insecure OTLP connection")

	// History storage
	fs.StringVar(&o.HistoryPath, "history-path", "", "Archive the run under this directory (e.g. "+defaultHistoryDir+")")
	fs.StringVar(&o.HistoryTags, "history-tags", "", "Comma-separated tags for the archived run")

	// Diagnostics
	fs.BoolVar(&o.DebugEvents, "debug-events", false, "Mirror the event stream to the logger")
}

// Apply overlays config file values onto flags the command line left unset.
func (o *OutputFlags) Apply(cfg *config.Config, set map[string]bool) {
	if !set["json-export"] && cfg.Exports.JSON != "" {
		o.JSONExport = cfg.Exports.JSON
	}
	if !set["jsonl-export"] && cfg.Exports.JSONL != "" {
		o.JSONLExport = cfg.Exports.JSONL
	}
	if !set["csv-export"] && cfg.Exports.CSV != "" {
		o.CSVExport = cfg.Exports.CSV
	}
	if !set["md-export"] && cfg.Exports.Markdown != "" {
		o.MDExport = cfg.Exports.Markdown
	}
	if !set["pdf-export"] && cfg.Exports.PDF != "" {
		o.PDFExport = cfg.Exports.PDF
	}
	if !set["template-export"] && cfg.Exports.Template != "" {
		o.TemplateExport = cfg.Exports.Template
	}
	if !set["template-file"] && cfg.Exports.TemplateFile != "" {
		o.TemplateFile = cfg.Exports.TemplateFile
	}
	if !set["template-name"] && cfg.Exports.TemplateName != "" {
		o.TemplateName = cfg.Exports.TemplateName
	}

	if !set["silent"] && !set["s"] && cfg.Console.Silent {
		o.Silent = true
	}
	if !set["no-color"] && !set["nc"] && cfg.Console.NoColor {
		o.NoColor = true
	}
	if !set["table"] && cfg.Console.TableMode != "" {
		o.TableMode = cfg.Console.TableMode
	}

	if !set["webhook"] && cfg.Hooks.Webhook != "" {
		o.WebhookURL = cfg.Hooks.Webhook
	}
	if !set["webhook-all"] && cfg.Hooks.WebhookAll {
		o.WebhookAll = true
	}
	if !set["metrics-port"] && cfg.Hooks.MetricsPort > 0 {
		o.MetricsPort = cfg.Hooks.MetricsPort
	}
	if !set["otel-endpoint"] && cfg.Hooks.OTelEndpoint != "" {
		o.OTelEndpoint = cfg.Hooks.OTelEndpoint
	}
	if !set["otel-insecure"] && cfg.Hooks.OTelInsecure {
		o.OTelInsecure = true
	}
	if !set["debug-events"] && cfg.Hooks.DebugEvents {
		o.DebugEvents = true
	}

	if !set["history-path"] && cfg.History.Path != "" {
		o.HistoryPath = cfg.History.Path
	}
	if !set["history-tags"] && len(cfg.History.Tags) > 0 {
		o.HistoryTags = strings.Join(cfg.History.Tags, ",")
	}
}

// ToConfig converts the flags into the output builder's Config.
func (o *OutputFlags) ToConfig(logger *slog.Logger) output.Config {
	return output.Config{
		JSONExport:     o.JSONExport,
		JSONLExport:    o.JSONLExport,
		CSVExport:      o.CSVExport,
		MDExport:       o.MDExport,
		PDFExport:      o.PDFExport,
		TemplateExport: o.TemplateExport,
		TemplateFile:   o.TemplateFile,
		TemplateName:   o.TemplateName,
		JSONMode:       o.JSONMode,
		BestOnly:       o.BestOnly,
		OmitFindings:   o.OmitFindings,
		TableMode:      o.TableMode,
		Silent:         o.Silent,
		NoColor:        o.NoColor,
		WebhookURL:     o.WebhookURL,
		WebhookAll:     o.WebhookAll,
		MetricsPort:    o.MetricsPort,
		OTelEndpoint:   o.OTelEndpoint,
		OTelInsecure:   o.OTelInsecure,
		HistoryPath:    o.HistoryPath,
		HistoryTags:    splitTags(o.HistoryTags),
		DebugEvents:    o.DebugEvents,
		Logger:         logger,
		Version:        ui.Version,
	}
}

// ActiveExports lists the enabled export names for the run manifest
// and the start event.
func (o *OutputFlags) ActiveExports() []string {
	return o.ToConfig(nil).ActiveExports()
}

// BuildLogger constructs the structured logger hooks report through.
// -debug-events lowers the level so the logger hook's event mirror is
// visible.
func (o *OutputFlags) BuildLogger() *slog.Logger {
	level := slog.LevelInfo
	if o.DebugEvents {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// ApplyUISettings applies silent and color settings to the UI.
func (o *OutputFlags) ApplyUISettings() {
	if o.Silent {
		ui.SetSilent(true)
	}
	if o.NoColor {
		ui.SetNoColor(true)
	}
}

// ShouldSuppressBanner returns true if banner output should be
// suppressed: silent mode, or JSONL streaming where stderr chrome
// would interleave with piped output.
func (o *OutputFlags) ShouldSuppressBanner() bool {
	return o.Silent || o.JSONMode
}

// PrintOutputConfig prints the configured exports and hooks to stderr.
func (o *OutputFlags) PrintOutputConfig() {
	if o.Silent {
		return
	}
	if len(o.ActiveExports()) == 0 && !o.hasHooks() {
		return
	}

	ui.PrintSection("Output Configuration")

	if o.JSONExport != "" {
		ui.PrintConfigLine("JSON Export", o.JSONExport)
	}
	if o.JSONLExport != "" {
		ui.PrintConfigLine("JSONL Export", o.JSONLExport)
	}
	if o.CSVExport != "" {
		ui.PrintConfigLine("CSV Export", o.CSVExport)
	}
	if o.MDExport != "" {
		ui.PrintConfigLine("Markdown Export", o.MDExport)
	}
	if o.PDFExport != "" {
		ui.PrintConfigLine("PDF Export", o.PDFExport)
	}
	if o.TemplateExport != "" {
		ui.PrintConfigLine("Template Export", o.TemplateExport)
	}
	if o.WebhookURL != "" {
		ui.PrintConfigLine("Webhook", o.WebhookURL)
	}
	if o.MetricsPort > 0 {
		ui.PrintConfigLine("Metrics Port", fmt.Sprintf(":%d", o.MetricsPort))
	}
	if o.OTelEndpoint != "" {
		ui.PrintConfigLine("OpenTelemetry", o.OTelEndpoint)
	}
	if o.HistoryPath != "" {
		ui.PrintConfigLine("History Store", o.HistoryPath)
	}
}

// hasHooks returns true if any event hooks are configured.
func (o *OutputFlags) hasHooks() bool {
	return o.WebhookURL != "" || o.MetricsPort > 0 || o.OTelEndpoint != "" ||
		o.HistoryPath != "" || o.DebugEvents
}

// splitTags parses a comma-separated tag list, dropping empty entries.
func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
