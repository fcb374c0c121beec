// Command pdftpl-mcp is an MCP (Model Context Protocol) server that exposes
// template-based PDF generation to AI assistants over stdio.
//
// # Installation
//
//	go install github.com/lvillar/pdftpl/cmd/pdftpl-mcp@latest
//
// # Client configuration
//
//	{
//	  "mcpServers": {
//	    "pdftpl": {
//	      "command": "pdftpl-mcp"
//	    }
//	  }
//	}
//
// # Available Tools
//
//   - generate_pdf: Fill a template with input records
//   - validate_template: Check a template and list its fields
//   - inspect_pdf: Report metadata, page sizes and positioned text
//
// # Available Resources
//
//   - pdftpl://kinds : Field types and whether they are drawn
//   - pdftpl://last-generation : Pages and diagnostics of the last generate_pdf call
//   - pdf://pages?path=... : Page sizes, underlays and positioned text
package main

import (
	"log/slog"
	"os"

	"github.com/lvillar/pdftpl/mcp"
)

func main() {
	// stdout carries the protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	server := mcp.NewServer()
	server.SetLogger(log)

	mcp.RegisterDefaultTools(server)
	mcp.RegisterDefaultResources(server)

	if err := server.Run(); err != nil {
		log.Error("pdftpl-mcp stopped", "error", err)
		os.Exit(1)
	}
}
