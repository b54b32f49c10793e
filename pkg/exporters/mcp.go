package exporters

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
)

type vscodeServer struct {
	Type    string            `json:"type"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
}

type vscodeConfig struct {
	Servers map[string]vscodeServer `json:"servers"`
}

// vscodeMCPExporter writes .vscode/mcp.json.
type vscodeMCPExporter struct{}

func (e *vscodeMCPExporter) Name() string        { return "vscode-mcp" }
func (e *vscodeMCPExporter) Version() string     { return "1.0.0" }
func (e *vscodeMCPExporter) Description() string { return "VS Code MCP servers (.vscode/mcp.json)" }

func (e *vscodeMCPExporter) Export(req Request, _ Options) (*Result, error) {
	if err := validate(e.Name(), req); err != nil {
		return nil, err
	}
	result := &Result{Exporter: e.Name()}
	if len(req.Doc.MCPServers) == 0 {
		return result, nil
	}

	cfg := vscodeConfig{Servers: make(map[string]vscodeServer, len(req.Doc.MCPServers))}
	for name, srv := range req.Doc.MCPServers {
		out := vscodeServer{Command: srv.Command, Args: srv.Args, Env: srv.Env, URL: srv.URL}
		if srv.URL != "" {
			out.Type = "http"
		} else {
			out.Type = "stdio"
		}
		cfg.Servers[name] = out
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrExportFailed, "vscode-mcp: failed to encode servers")
	}
	result.Files = append(result.Files, OutputFile{
		Path:    outputPath(req.Root, ".vscode/mcp.json"),
		Content: withTrailingNewline(string(data)),
	})
	return result, nil
}

type codexServer struct {
	Command string            `toml:"command,omitempty"`
	Args    []string          `toml:"args,omitempty"`
	Env     map[string]string `toml:"env,omitempty"`
	URL     string            `toml:"url,omitempty"`
}

type codexConfig struct {
	MCPServers map[string]codexServer `toml:"mcp_servers"`
}

// codexExporter writes MCP servers into .codex/config.toml.
type codexExporter struct{}

func (e *codexExporter) Name() string        { return "codex" }
func (e *codexExporter) Version() string     { return "1.0.0" }
func (e *codexExporter) Description() string { return "Codex CLI MCP servers (.codex/config.toml)" }

func (e *codexExporter) Export(req Request, _ Options) (*Result, error) {
	if err := validate(e.Name(), req); err != nil {
		return nil, err
	}
	result := &Result{Exporter: e.Name()}
	if len(req.Doc.MCPServers) == 0 {
		return result, nil
	}

	cfg := codexConfig{MCPServers: make(map[string]codexServer, len(req.Doc.MCPServers))}
	for name, srv := range req.Doc.MCPServers {
		cfg.MCPServers[name] = codexServer{Command: srv.Command, Args: srv.Args, Env: srv.Env, URL: srv.URL}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrExportFailed, "codex: failed to encode servers")
	}
	result.Files = append(result.Files, OutputFile{
		Path:    outputPath(req.Root, ".codex/config.toml"),
		Content: withTrailingNewline(string(data)),
	})
	return result, nil
}
