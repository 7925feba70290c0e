// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes one managed container sandbox through MCP
// tools: run_command, read_file, write_file, path_exists, list_files and
// list_directories. It uses the mark3labs/mcp-go library to handle the
// protocol details.
//
// The server supports both stdio and HTTP transports as configured by the
// application configuration. The sandbox itself is started and stopped by
// the application lifecycle, not by the server.
//
// Usage:
//
//	server, err := mcpserver.New(config, logger, manager)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or server.ServeHTTP()
package mcpserver
