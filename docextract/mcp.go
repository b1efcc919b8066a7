package docextract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/docextract/kit"
)

// RegisterMCP registers docextract tools on an MCP server.
func (e *Extractor) RegisterMCP(srv *mcp.Server) {
	e.registerExtractTool(srv)
	e.registerProbeTool(srv)
	e.registerMarkdownTool(srv)
	e.registerFormatsTool(srv)
}

// registerTool registers endpoint with call logging.
func (e *Extractor) registerTool(srv *mcp.Server, tool *mcp.Tool, endpoint kit.Endpoint, decode func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error)) {
	kit.RegisterMCPTool(srv, tool, kit.Chain(kit.Logging(e.logger, tool.Name))(endpoint), decode)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// fileReq names a local document. MimeType is optional; the extension
// decides when it is empty.
type fileReq struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type,omitempty"`
}

var fileSchema = inputSchema(map[string]any{
	"path":      map[string]any{"type": "string", "description": "Path of the document"},
	"mime_type": map[string]any{"type": "string", "description": "Declared MIME type (optional)"},
}, []string{"path"})

func decodeFileReq(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r fileReq
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	if r.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return &kit.MCPDecodeResult{
		Request:   &r,
		EnrichCtx: func(ctx context.Context) context.Context { return kit.WithTransport(ctx, "mcp") },
	}, nil
}

// readFile loads a document, refusing files above MaxInputSize before
// reading them.
func (e *Extractor) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > e.cfg.MaxInputSize {
		return nil, newError(ErrOversizedInput, ResolveFormat("", path), nil,
			"%d bytes exceeds limit of %d", info.Size(), e.cfg.MaxInputSize)
	}
	return io.ReadAll(io.LimitReader(f, e.cfg.MaxInputSize+1))
}

// --- extract ---

func (e *Extractor) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docextract_extract",
		Description: "Extract titled text sections, metadata and embedded images from a .pptx or .docx file.",
		InputSchema: fileSchema,
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*fileReq)
		buf, err := e.readFile(r.Path)
		if err != nil {
			return nil, err
		}
		return e.Extract(ctx, buf, r.MimeType, r.Path)
	}

	e.registerTool(srv, tool, endpoint, decodeFileReq)
}

// --- probe ---

func (e *Extractor) registerProbeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docextract_probe",
		Description: "Check whether a document can be extracted without extracting it.",
		InputSchema: fileSchema,
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*fileReq)
		buf, err := e.readFile(r.Path)
		if err != nil {
			return nil, err
		}
		return e.Probe(ctx, buf, r.MimeType, r.Path)
	}

	e.registerTool(srv, tool, endpoint, decodeFileReq)
}

// --- markdown ---

func (e *Extractor) registerMarkdownTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docextract_markdown",
		Description: "Render a .pptx or .docx file as Markdown.",
		InputSchema: fileSchema,
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*fileReq)
		buf, err := e.readFile(r.Path)
		if err != nil {
			return nil, err
		}
		md, err := e.Markdown(ctx, buf, r.MimeType, r.Path)
		if err != nil {
			return nil, err
		}
		return map[string]any{"markdown": md}, nil
	}

	e.registerTool(srv, tool, endpoint, decodeFileReq)
}

// --- formats ---

func (e *Extractor) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docextract_formats",
		Description: "List the document formats that can be extracted.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"formats": SupportedFormats()}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	e.registerTool(srv, tool, endpoint, decode)
}
