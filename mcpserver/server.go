package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/dynbox/config"
	"github.com/isdmx/dynbox/sandbox"
)

// SandboxManager is the subset of the sandbox manager the server drives.
type SandboxManager interface {
	Run(ctx context.Context, command, workingDirectory string) (sandbox.Result, error)
	ReadFile(ctx context.Context, path string) (string, bool, error)
	CreateFile(ctx context.Context, path, content string) (sandbox.Result, error)
	FileExists(ctx context.Context, path string) (bool, error)
	DirectoryExists(ctx context.Context, path string) (bool, error)
	ListFiles(ctx context.Context, path string) ([]string, error)
	ListDirectories(ctx context.Context, path string, includeTrailingSlash bool) ([]string, error)
}

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	manager   SandboxManager
	mcpServer *server.MCPServer
}

// New creates a new MCPServer exposing the managed sandbox as MCP tools
func New(cfg *config.Config, logger *zap.Logger, manager SandboxManager) (*MCPServer, error) {
	s := &MCPServer{
		config:  cfg,
		logger:  logger,
		manager: manager,
	}

	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("sandbox.runtime", cfg.Sandbox.Runtime),
		zap.String("sandbox.image", cfg.Sandbox.Image),
		zap.String("sandbox.name_prefix", cfg.Sandbox.NamePrefix),
		zap.Int("sandbox.timeout_sec", cfg.Sandbox.TimeoutSec),
		zap.Bool("sandbox.privileged", cfg.Sandbox.Privileged),
		zap.Bool("sandbox.combine_outputs", cfg.Sandbox.CombineOutputs),
	)

	s.mcpServer = server.NewMCPServer("dynbox", "Run shell commands in an ephemeral container sandbox")

	s.registerTools()

	return s, nil
}

// registerTools registers every sandbox tool with the MCP server
func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "run_command",
		Description: "Run a shell command inside the sandbox and capture its output and exit status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "Shell command to run",
				},
				"working_dir": map[string]any{
					"type":        "string",
					"description": "Directory to run in, relative to the sandbox home unless absolute (optional)",
				},
			},
			Required: []string{"command"},
		},
	}, s.handleRunCommand)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "read_file",
		Description: "Read a file from the sandbox filesystem",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Path of the file, relative to the sandbox home unless absolute",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleReadFile)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "write_file",
		Description: "Append content to a file in the sandbox, creating it when missing",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Path of the file, relative to the sandbox home unless absolute",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "Text to append; must be shell-safe",
				},
			},
			Required: []string{"path", "content"},
		},
	}, s.handleWriteFile)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "path_exists",
		Description: "Check whether a path in the sandbox is a file or a directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Path to check, relative to the sandbox home unless absolute",
				},
			},
			Required: []string{"path"},
		},
	}, s.handlePathExists)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_files",
		Description: "List the regular files in a sandbox directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Directory to list, relative to the sandbox home unless absolute",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleListFiles)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_directories",
		Description: "List the subdirectories of a sandbox directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Directory to list, relative to the sandbox home unless absolute",
				},
				"trailing_slash": map[string]any{
					"type":        "boolean",
					"description": "Keep the trailing slash on each name (default true)",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleListDirectories)
}

// handleRunCommand handles the run_command tool
func (s *MCPServer) handleRunCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := request.RequireString("command")
	if err != nil {
		return nil, fmt.Errorf("command parameter is required: %w", err)
	}
	workingDir := request.GetString("working_dir", "")

	s.logger.Info("running command in sandbox",
		zap.String("command", command),
		zap.String("working_dir", workingDir))

	result, err := s.manager.Run(ctx, command, workingDir)
	if err != nil {
		return s.transportFailure("command execution", err), nil
	}

	s.logger.Info("command completed",
		zap.Int("exit_code", result.ExitCode),
		zap.Int("stdout_len", len(result.Stdout)),
		zap.Int("stderr_len", len(result.Stderr)))

	return textResult(fmt.Sprintf(`{"stdout":%q,"stderr":%q,"exit_code":%d,"succeeded":%t}`,
		result.Stdout, result.Stderr, result.ExitCode, result.Succeeded())), nil
}

// handleReadFile handles the read_file tool
func (s *MCPServer) handleReadFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return nil, fmt.Errorf("path parameter is required: %w", err)
	}

	content, exists, err := s.manager.ReadFile(ctx, path)
	if err != nil {
		return s.transportFailure("read_file", err), nil
	}

	return textResult(fmt.Sprintf(`{"content":%q,"exists":%t}`, content, exists)), nil
}

// handleWriteFile handles the write_file tool
func (s *MCPServer) handleWriteFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return nil, fmt.Errorf("path parameter is required: %w", err)
	}
	content, err := request.RequireString("content")
	if err != nil {
		return nil, fmt.Errorf("content parameter is required: %w", err)
	}

	result, err := s.manager.CreateFile(ctx, path, content)
	if err != nil {
		return s.transportFailure("write_file", err), nil
	}

	return textResult(fmt.Sprintf(`{"exit_code":%d,"succeeded":%t}`, result.ExitCode, result.Succeeded())), nil
}

// handlePathExists handles the path_exists tool
func (s *MCPServer) handlePathExists(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return nil, fmt.Errorf("path parameter is required: %w", err)
	}

	isFile, err := s.manager.FileExists(ctx, path)
	if err != nil {
		return s.transportFailure("path_exists", err), nil
	}
	isDir, err := s.manager.DirectoryExists(ctx, path)
	if err != nil {
		return s.transportFailure("path_exists", err), nil
	}

	return textResult(fmt.Sprintf(`{"file":%t,"directory":%t}`, isFile, isDir)), nil
}

// handleListFiles handles the list_files tool
func (s *MCPServer) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return nil, fmt.Errorf("path parameter is required: %w", err)
	}

	files, err := s.manager.ListFiles(ctx, path)
	if err != nil {
		return s.transportFailure("list_files", err), nil
	}

	return textResult(namesJSON(files)), nil
}

// handleListDirectories handles the list_directories tool
func (s *MCPServer) handleListDirectories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return nil, fmt.Errorf("path parameter is required: %w", err)
	}
	trailingSlash := request.GetBool("trailing_slash", true)

	dirs, err := s.manager.ListDirectories(ctx, path, trailingSlash)
	if err != nil {
		return s.transportFailure("list_directories", err), nil
	}

	return textResult(namesJSON(dirs)), nil
}

// transportFailure reports an operation the exec transport could not carry out
func (s *MCPServer) transportFailure(operation string, err error) *mcp.CallToolResult {
	s.logger.Error("sandbox operation failed", zap.String("operation", operation), zap.Error(err))
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: fmt.Sprintf("%s failed: %v", operation, err),
			},
		},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func namesJSON(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, fmt.Sprintf("%q", name))
	}
	return fmt.Sprintf(`{"names":[%s]}`, strings.Join(quoted, ","))
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
