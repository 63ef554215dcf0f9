// Package mcp implements a Model Context Protocol (MCP) server that exposes
// the form catalog as tools and resources for AI assistants: list the forms,
// describe one, start a blank report, render it to PDF or XLSX, merge several
// PDFs and read a PDF back as text.
//
// The server communicates via JSON-RPC 2.0 over stdio and implements the
// MCP protocol revision 2024-11-05 for tools and resources.
//
// # Usage with Claude Desktop
//
// Add to your claude_desktop_config.json:
//
//	{
//	  "mcpServers": {
//	    "formpdf": {
//	      "command": "formpdf",
//	      "args": ["--mode=mcp"]
//	    }
//	  }
//	}
package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Protocol and server identification.
const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "formpdf"
	ServerVersion   = "1.0.0"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Server answers JSON-RPC 2.0 requests read line by line from its input.
type Server struct {
	tools     map[string]Tool
	resources map[string]Resource
	input     io.Reader
	output    io.Writer
	log       *zap.Logger
	mu        sync.Mutex
}

// Tool is a callable exposed to the client.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Handler     ToolHandler            `json:"-"`
}

// ToolHandler runs a tool. A returned error becomes an isError result.
type ToolHandler func(args map[string]interface{}) (ToolResult, error)

// ToolResult is the reply to tools/call.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is one item of a tool result: text, or base64 data tagged
// with its MIME type.
type ContentBlock struct {
	Type     string `json:"type"` // "text" or "resource"
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64 for binary
}

// Resource is a readable document addressed by URI.
type Resource struct {
	URI         string          `json:"uri"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MIMEType    string          `json:"mimeType,omitempty"`
	Handler     ResourceHandler `json:"-"`
}

// ResourceHandler reads a resource and returns its content.
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

// notification reports whether the client expects no reply.
func (r jsonrpcRequest) notification() bool { return r.ID == nil }

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

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      serverInfo             `json:"serverInfo"`
}

// method answers one request. A nil result with a nil error sends an empty
// object.
type method func(s *Server, params json.RawMessage) (interface{}, *jsonrpcError)

var methods = map[string]method{
	"initialize":     (*Server).initialize,
	"ping":           func(*Server, json.RawMessage) (interface{}, *jsonrpcError) { return nil, nil },
	"tools/list":     (*Server).listTools,
	"tools/call":     (*Server).callTool,
	"resources/list": (*Server).listResources,
	"resources/read": (*Server).readResource,
}

// NewServer creates a server on stdin and stdout.
func NewServer(log *zap.Logger) *Server {
	return NewServerWithIO(os.Stdin, os.Stdout, log)
}

// NewServerWithIO creates a server on the given streams.
func NewServerWithIO(in io.Reader, out io.Writer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		tools:     make(map[string]Tool),
		resources: make(map[string]Resource),
		input:     in,
		output:    out,
		log:       log,
	}
}

// AddTool registers t, replacing any tool of the same name.
func (s *Server) AddTool(t Tool) {
	s.tools[t.Name] = t
}

// AddResource registers r, replacing any resource with the same URI.
func (s *Server) AddResource(r Resource) {
	s.resources[r.URI] = r
}

// maxMessage bounds one newline-delimited message; rendered PDFs travel
// base64-encoded inside a single line.
const maxMessage = 32 << 20

// Run reads messages until the input ends.
func (s *Server) Run() error {
	sc := bufio.NewScanner(s.input)
	sc.Buffer(make([]byte, 0, 64<<10), maxMessage)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn("unparseable message", zap.Error(err))
			s.reply(nil, nil, rpcError(codeParseError, "Parse error", err.Error()))
			continue
		}
		s.dispatch(req)
	}
	return sc.Err()
}

func (s *Server) dispatch(req jsonrpcRequest) {
	s.log.Debug("request", zap.String("method", req.Method), zap.Bool("notification", req.notification()))

	m, ok := methods[req.Method]
	if !ok {
		// Notifications, known or not, get no reply.
		if !req.notification() {
			s.reply(req.ID, nil, rpcError(codeMethodNotFound, "Method not found", req.Method))
		}
		return
	}
	result, rerr := m(s, req.Params)
	if req.notification() {
		return
	}
	if result == nil && rerr == nil {
		result = struct{}{}
	}
	s.reply(req.ID, result, rerr)
}

func (s *Server) initialize(json.RawMessage) (interface{}, *jsonrpcError) {
	return initializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]interface{}{
			"tools":     struct{}{},
			"resources": struct{}{},
		},
		ServerInfo: serverInfo{Name: ServerName, Version: ServerVersion},
	}, nil
}

func (s *Server) listTools(json.RawMessage) (interface{}, *jsonrpcError) {
	tools := make([]Tool, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return map[string]interface{}{"tools": tools}, nil
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
	if params.Arguments == nil {
		params.Arguments = map[string]interface{}{}
	}

	result, err := tool.Handler(params.Arguments)
	if err != nil {
		// Tool failures are results the model can read, not protocol errors.
		s.log.Info("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return ToolResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
			IsError: true,
		}, nil
	}
	return result, nil
}

func (s *Server) listResources(json.RawMessage) (interface{}, *jsonrpcError) {
	resources := make([]Resource, 0, len(s.resources))
	for _, r := range s.resources {
		resources = append(resources, r)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].URI < resources[j].URI })
	return map[string]interface{}{"resources": resources}, nil
}

func (s *Server) readResource(raw json.RawMessage) (interface{}, *jsonrpcError) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, rpcError(codeInvalidParams, "Invalid params", err.Error())
	}
	r, ok := s.resources[params.URI]
	if !ok {
		return nil, rpcError(codeInvalidParams, "Unknown resource", params.URI)
	}
	contents, err := r.Handler(params.URI)
	if err != nil {
		return nil, rpcError(codeInternalError, "Resource error", err.Error())
	}
	return map[string]interface{}{"contents": contents}, nil
}

func (s *Server) reply(id *json.RawMessage, result interface{}, rerr *jsonrpcError) {
	resp := jsonrpcResponse{JSONRPC: "2.0", ID: id, Error: rerr}
	if rerr == nil {
		resp.Result = result
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := json.NewEncoder(s.output).Encode(resp); err != nil {
		s.log.Error("writing response", zap.Error(err))
	}
}
