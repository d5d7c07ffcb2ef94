// Package mcpserver exposes BidLens as a Model Context Protocol (MCP) server,
// enabling AI assistants (Claude, VS Code Copilot, Cursor, etc.) to browse,
// compare, and rank analyzed bid reports through natural conversation.
//
// # Architecture
//
// The server is built on the official MCP Go SDK and exposes four tools over
// the same report source the CLI uses:
//
//   - list_reports:    browse the report catalog, optionally filtered
//   - get_report:      fetch one report with its opportunity score
//   - compare_reports: run the comparison engine over 2-5 report ids
//   - rank_reports:    score and rank reports by opportunity
//
// Tool results are the same JSON the CLI exports produce, so an agent and a
// pipeline reading export files see identical shapes.
//
// # Tool Design Principles
//
// Every tool follows the same conventions:
//
//   - Detailed markdown descriptions with usage guidance and examples
//   - Complete JSON schemas with types, bounds, and required fields
//   - Proper annotations (readOnlyHint, idempotentHint, openWorldHint)
//   - Actionable errors that suggest the correct next step
//
// # Transports
//
// Two transport modes are supported:
//
//   - stdio:  Communicates over stdin/stdout (default). Used by IDE integrations.
//   - HTTP:   Streamable HTTP. Used for remote/Docker deployments, with a
//     /health probe endpoint.
//
// # Usage
//
//	src, _ := reportsvc.NewFileSource("reports.json")
//	srv := mcpserver.New(&mcpserver.Config{Source: src})
//	srv.MarkReady()
//	err := srv.RunStdio(ctx)
package mcpserver
