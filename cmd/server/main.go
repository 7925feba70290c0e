// Package main is the entry point for the dynbox MCP server.
//
// dynbox provisions one ephemeral, isolated container sandbox and exposes
// command execution and filesystem introspection inside it over the Model
// Context Protocol, on stdio or HTTP transports.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration. The sandbox is started when the application starts and
// torn down on shutdown.
package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/dynbox/config"
	"github.com/isdmx/dynbox/logger"
	"github.com/isdmx/dynbox/mcpserver"
	"github.com/isdmx/dynbox/sandbox"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.New,
			logger.NewFromConfig,

			// Sandbox manager built from config
			func(log *zap.Logger, cfg *config.Config) (*sandbox.Manager, error) {
				return sandbox.NewFromConfig(log, cfg)
			},
			func(m *sandbox.Manager) mcpserver.SandboxManager { return m },

			mcpserver.New,
		),

		// Tie the sandbox lifecycle to the application lifecycle and start
		// the configured transport once the sandbox is live.
		fx.Invoke(
			func(lc fx.Lifecycle, cfg *config.Config, mgr *sandbox.Manager, srv *mcpserver.MCPServer) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						if err := mgr.Start(ctx); err != nil {
							return err
						}
						switch cfg.Server.Transport {
						case "stdio":
							go func() {
								if err := srv.ServeStdio(); err != nil {
									panic(err)
								}
							}()
						case "http":
							go func() {
								if err := srv.ServeHTTP(); err != nil {
									panic(err)
								}
							}()
						}
						return nil
					},
					OnStop: func(ctx context.Context) error {
						mgr.Stop(ctx)
						return nil
					},
				})
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	app.Run()
}
