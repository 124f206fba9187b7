package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"jamflow/application/ports"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/valueobjects"
	"jamflow/infrastructure/config"
	"jamflow/infrastructure/di"
	"jamflow/infrastructure/speech"
	"jamflow/interfaces/mcp"
	"jamflow/pkg/errors"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ListenCmd feeds speech into a session and prints each resulting graph.
type ListenCmd struct {
	Version      kong.VersionFlag `help:"Show version information"`
	Session      string           `short:"s" default:"jam" env:"JAMFLOW_SESSION" help:"Session to feed"`
	File         string           `short:"f" type:"path" help:"Follow a transcript file instead of reading stdin"`
	Instructions bool             `short:"i" help:"Treat each line as an edit instruction for the inference service"`
	Mode         string           `enum:"discovery,structure" default:"discovery" help:"Graph mode of a new session"`
	Verbose      bool             `short:"v" help:"Enable verbose logging"`
}

// Run executes the listen command.
func (c *ListenCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, cleanup, err := bootstrap(c.Verbose)
	if err != nil {
		return err
	}
	defer cleanup()

	id := aggregates.GraphID(c.Session)
	if err := createIfMissing(ctx, container.Sessions, id, valueobjects.GraphMode(c.Mode)); err != nil {
		return err
	}

	path := c.File
	if path == "" {
		path = container.Config.TranscriptFile
	}
	var source ports.SpeechSource
	if path != "" {
		color.Green("Following %s (session %s)", path, c.Session)
		source = speech.NewFileSource(path, container.Logger)
	} else {
		color.Green("Reading stdin (session %s)", c.Session)
		source = speech.NewLineSource(os.Stdin)
	}

	listener := NewListener(source, container.Sessions, c.Session, c.Instructions, color.Output, container.Logger)
	return listener.Run(ctx)
}

// MCPCmd serves one session to MCP clients on stdio.
type MCPCmd struct {
	Version kong.VersionFlag `help:"Show version information"`
	Session string           `short:"s" default:"jam" env:"JAMFLOW_SESSION" help:"Session exposed to the client"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
}

// Run executes the mcp command. Logs go to stderr; stdout carries the
// protocol.
func (c *MCPCmd) Run() error {
	container, cleanup, err := bootstrap(c.Verbose)
	if err != nil {
		return err
	}
	defer cleanup()

	server := mcp.NewServer(container.CommandBus, container.QueryBus, container.Sessions, c.Session, container.Logger)
	if err := server.EnsureSession(context.Background()); err != nil {
		return err
	}
	container.Logger.Info("Serving MCP", zap.String("session", c.Session))
	return server.Serve()
}

// Parse runs cmd as a kong application.
func Parse(name, description string, cmd interface{}, args []string) error {
	parser, err := kong.New(cmd,
		kong.Name(name),
		kong.Description(description),
		kong.UsageOnError(),
		kong.Vars{"version": Version},
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run()
}

func bootstrap(verbose bool) (*di.Container, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	} else if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	container, cleanup, err := di.InitializeContainer(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing container: %w", err)
	}
	return container, func() {
		cleanup()
		_ = container.Logger.Sync()
	}, nil
}

// SessionCreator creates sessions.
type SessionCreator interface {
	CreateSession(ctx context.Context, id aggregates.GraphID, mode valueobjects.GraphMode) (*aggregates.Graph, error)
}

// createIfMissing creates the session; an existing one is kept as is.
func createIfMissing(ctx context.Context, sessions SessionCreator, id aggregates.GraphID, mode valueobjects.GraphMode) error {
	if _, err := sessions.CreateSession(ctx, id, mode); err != nil && !errors.IsConflict(err) {
		return err
	}
	return nil
}
