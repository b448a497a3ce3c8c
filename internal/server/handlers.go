package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ironsheep/plate-recognizer/internal/plate"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plate_recognize", "plate_parse").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Recognition
	case "plate_recognize":
		return s.handlePlateRecognize(ctx, args)
	case "plate_cache_clear":
		return s.handlePlateCacheClear(args)

	// Text Operations
	case "plate_correct":
		return s.handlePlateCorrect(args)
	case "plate_parse":
		return s.handlePlateParse(args)
	case "plate_select":
		return s.handlePlateSelect(args)
	case "plate_region_codes":
		return s.handlePlateRegionCodes()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments. Tools without parameters may be
// called with no arguments at all.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, v)
}

// === Recognition Handlers ===

type plateRecognizeArgs struct {
	Path           string `json:"path"`
	AnnotateOutput string `json:"annotate_output"`
}

func (s *Server) handlePlateRecognize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a plateRecognizeArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	rec, err := s.loadRecognizer()
	if err != nil {
		return nil, err
	}
	return rec.RecognizeFile(ctx, a.Path, a.AnnotateOutput)
}

type plateCacheClearArgs struct {
	Path string `json:"path"`
}

type plateCacheClearResult struct {
	Cleared string `json:"cleared"`
	Cached  int    `json:"cached"`
}

// handlePlateCacheClear drops one image, or every image when no path is given,
// so the next plate_recognize re-reads it from disk.
func (s *Server) handlePlateCacheClear(args json.RawMessage) (interface{}, error) {
	var a plateCacheClearArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	cleared := "all"
	if a.Path != "" {
		s.cache.Evict(a.Path)
		cleared = a.Path
	} else {
		s.cache.Clear()
	}
	return plateCacheClearResult{Cleared: cleared, Cached: s.cache.Len()}, nil
}

// === Text Operation Handlers ===

type plateTextArgs struct {
	Text string `json:"text"`
}

type plateCorrectResult struct {
	Input     string `json:"input"`
	Corrected string `json:"corrected"`
}

func (s *Server) handlePlateCorrect(args json.RawMessage) (interface{}, error) {
	var a plateTextArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return &plateCorrectResult{
		Input:     a.Text,
		Corrected: plate.Correct(strings.ToUpper(a.Text)),
	}, nil
}

type plateParseResult struct {
	Text   string `json:"text"`
	Parsed bool   `json:"parsed"`
	plate.Details
}

func (s *Server) handlePlateParse(args json.RawMessage) (interface{}, error) {
	var a plateTextArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	details := plate.Parse(a.Text)
	return &plateParseResult{
		Text:    a.Text,
		Parsed:  details.Parsed(),
		Details: details,
	}, nil
}

type plateSelectArgs struct {
	Candidates []plate.RawCandidate `json:"candidates"`
}

type plateSelectResult struct {
	Found   bool           `json:"found"`
	Reading *plate.Reading `json:"reading,omitempty"`
}

func (s *Server) handlePlateSelect(args json.RawMessage) (interface{}, error) {
	var a plateSelectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	reading, ok := plate.Interpret(a.Candidates)
	if !ok {
		return &plateSelectResult{Found: false}, nil
	}
	return &plateSelectResult{Found: true, Reading: &reading}, nil
}

type plateRegionCodesResult struct {
	Count   int                `json:"count"`
	Regions []plate.RegionCode `json:"regions"`
}

func (s *Server) handlePlateRegionCodes() (interface{}, error) {
	codes := plate.RegionCodes()
	return &plateRegionCodesResult{Count: len(codes), Regions: codes}, nil
}
