// Package mcp implements a Model Context Protocol (MCP) server that exposes
// template-based PDF generation as tools and resources for AI assistants.
//
// Messages are newline-delimited JSON-RPC 2.0 on the server's input and
// output streams (stdio in production), following the 2024-11-05 protocol
// revision. Logs go to the configured slog.Logger, never to the protocol
// stream.
//
// # Usage with an MCP client
//
//	{
//	  "mcpServers": {
//	    "pdftpl": {
//	      "command": "pdftpl-mcp"
//	    }
//	  }
//	}
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
)

const (
	serverName      = "pdftpl-mcp"
	serverVersion   = "1.0.0"
	protocolVersion = "2024-11-05"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// maxMessageBytes bounds a single request line; templates may embed a base
// PDF as base64.
const maxMessageBytes = 32 << 20

// Server answers MCP requests with the registered tools and resources.
type Server struct {
	tools     map[string]Tool
	resources map[string]Resource
	methods   map[string]method

	input   io.Reader
	output  io.Writer
	logger  *slog.Logger
	writeMu sync.Mutex

	// last is the outcome of the most recent generate_pdf call.
	last *generationReport
}

// Tool defines an MCP tool that can be called by the client.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Handler     ToolHandler            `json:"-"`
}

// ToolHandler executes a tool with the arguments sent by the client.
type ToolHandler func(args map[string]interface{}) (ToolResult, error)

// ToolResult is the result returned by a tool execution.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is a piece of content in a tool result.
type ContentBlock struct {
	Type     string `json:"type"` // "text" or "resource"
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64
}

// Resource defines an MCP resource. URI is matched without its query, so
// pdf://pages serves pdf://pages?path=/tmp/out.pdf.
type Resource struct {
	URI         string          `json:"uri"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MIMEType    string          `json:"mimeType,omitempty"`
	Handler     ResourceHandler `json:"-"`
}

// ResourceHandler reads a resource given the full requested URI.
type ResourceHandler func(uri string) ([]ResourceContent, error)

// ResourceContent is the content of a read resource.
type ResourceContent struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // base64
}

type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id"`
	Result  interface{}      `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func rpcError(code int, message string, data interface{}) *jsonrpcError {
	return &jsonrpcError{Code: code, Message: message, Data: data}
}

// method handles the params of one JSON-RPC method.
type method func(params json.RawMessage) (interface{}, *jsonrpcError)

// NewServer creates a server on stdin and stdout.
func NewServer() *Server {
	return NewServerWithIO(os.Stdin, os.Stdout).withLogger(slog.Default())
}

// NewServerWithIO creates a server on the given streams with logging
// discarded.
func NewServerWithIO(in io.Reader, out io.Writer) *Server {
	s := &Server{
		tools:     make(map[string]Tool),
		resources: make(map[string]Resource),
		input:     in,
		output:    out,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	s.methods = map[string]method{
		"initialize":     s.initialize,
		"ping":           func(json.RawMessage) (interface{}, *jsonrpcError) { return struct{}{}, nil },
		"tools/list":     s.listTools,
		"tools/call":     s.callTool,
		"resources/list": s.listResources,
		"resources/read": s.readResource,
	}
	return s
}

func (s *Server) withLogger(l *slog.Logger) *Server {
	s.logger = l
	return s
}

// SetLogger replaces the server's logger.
func (s *Server) SetLogger(l *slog.Logger) {
	s.logger = l
}

// AddTool registers a tool, replacing any tool of the same name.
func (s *Server) AddTool(t Tool) {
	s.tools[t.Name] = t
}

// AddResource registers a resource, replacing any resource with the same URI.
func (s *Server) AddResource(r Resource) {
	s.resources[r.URI] = r
}

// Run serves requests until the input is exhausted.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("unparsable request", "error", err)
			s.reply(nil, nil, rpcError(codeParseError, "Parse error", err.Error()))
			continue
		}

		result, rerr := s.dispatch(req)
		// Notifications carry no id and get no response.
		if req.ID == nil {
			continue
		}
		s.reply(req.ID, result, rerr)
	}
	return scanner.Err()
}

func (s *Server) dispatch(req jsonrpcRequest) (interface{}, *jsonrpcError) {
	m, ok := s.methods[req.Method]
	if !ok {
		if strings.HasPrefix(req.Method, "notifications/") || req.Method == "initialized" {
			return nil, nil
		}
		return nil, rpcError(codeMethodNotFound, "Method not found", req.Method)
	}
	return m(req.Params)
}

func (s *Server) initialize(json.RawMessage) (interface{}, *jsonrpcError) {
	return map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{},
			"resources": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    serverName,
			"version": serverVersion,
		},
	}, nil
}

// sortedValues returns m's values ordered by key.
func sortedValues[V any](m map[string]V) []V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func (s *Server) listTools(json.RawMessage) (interface{}, *jsonrpcError) {
	return map[string]interface{}{"tools": sortedValues(s.tools)}, nil
}

func (s *Server) listResources(json.RawMessage) (interface{}, *jsonrpcError) {
	return map[string]interface{}{"resources": sortedValues(s.resources)}, nil
}

func (s *Server) callTool(raw json.RawMessage) (interface{}, *jsonrpcError) {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, rpcError(codeInvalidParams, "Invalid params", err.Error())
	}
	tool, ok := s.tools[params.Name]
	if !ok {
		return nil, rpcError(codeInvalidParams, "Unknown tool", params.Name)
	}

	s.logger.Debug("tool call", "tool", params.Name)
	result, err := tool.Handler(params.Arguments)
	if err != nil {
		// Tool failures are reported as results, not protocol errors.
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return ToolResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
			IsError: true,
		}, nil
	}
	return result, nil
}

func (s *Server) readResource(raw json.RawMessage) (interface{}, *jsonrpcError) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, rpcError(codeInvalidParams, "Invalid params", err.Error())
	}
	base, _, _ := strings.Cut(params.URI, "?")
	resource, ok := s.resources[base]
	if !ok {
		return nil, rpcError(codeInvalidParams, "Unknown resource", params.URI)
	}

	contents, err := resource.Handler(params.URI)
	if err != nil {
		s.logger.Warn("resource failed", "uri", params.URI, "error", err)
		return nil, rpcError(codeInternalError, "Resource error", err.Error())
	}
	return map[string]interface{}{"contents": contents}, nil
}

// reply writes one response line.
func (s *Server) reply(id *json.RawMessage, result interface{}, rerr *jsonrpcError) {
	resp := jsonrpcResponse{JSONRPC: "2.0", ID: id, Error: rerr}
	if rerr == nil {
		resp.Result = result
	}
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("encoding response", "error", err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.output.Write(append(data, '\n')); err != nil {
		s.logger.Error("writing response", "error", err)
	}
}
