// Package mcp exposes the graph of one jam session as Model Context
// Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/application/commands/bus"
	"jamflow/application/queries"
	querybus "jamflow/application/queries/bus"
	"jamflow/application/services"
	"jamflow/domain/core/aggregates"
	"jamflow/domain/core/valueobjects"
	"jamflow/pkg/errors"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// GraphURI is the resource holding the session graph.
const GraphURI = "jamflow://graph"

// TranscriptParser turns a transcript into the session graph.
type TranscriptParser interface {
	ProcessTranscript(ctx context.Context, id aggregates.GraphID, transcript string) (*services.TranscriptOutcome, error)
}

// Server adapts one session to the Model Context Protocol.
type Server struct {
	mcpServer  *server.MCPServer
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	parser     TranscriptParser
	sessionID  string
	logger     *zap.Logger
}

// NewServer creates a server bound to sessionID.
func NewServer(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, parser TranscriptParser, sessionID string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcpServer:  server.NewMCPServer("jamflow", Version, server.WithToolCapabilities(false)),
		commandBus: commandBus,
		queryBus:   queryBus,
		parser:     parser,
		sessionID:  sessionID,
		logger:     logger,
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// EnsureSession creates the bound session unless it already exists.
func (s *Server) EnsureSession(ctx context.Context) error {
	err := s.commandBus.Send(ctx, commands.CreateSessionCommand{SessionID: s.sessionID})
	if err != nil && !errors.IsConflict(err) {
		return err
	}
	return nil
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"add_node",
		mcp.WithDescription("Add a musical element to the graph"),
		mcp.WithString("label", mcp.Required(), mcp.Description("Display name, e.g. 'Bass'")),
		mcp.WithString("type", mcp.Required(), mcp.Description("bassline, drum, melody, genre, chord, vocal, fx, synth or section")),
		mcp.WithString("id", mcp.Description("Node id; generated when omitted")),
		mcp.WithString("key", mcp.Description("Musical key, e.g. 'Am'")),
		mcp.WithNumber("bpm", mcp.Description("Tempo in beats per minute")),
		mcp.WithString("section", mcp.Description("Song section the element belongs to")),
		mcp.WithString("details", mcp.Description("Free-form notes")),
		mcp.WithNumber("x", mcp.Description("Horizontal position")),
		mcp.WithNumber("y", mcp.Description("Vertical position")),
	), s.handleAddNode)

	s.mcpServer.AddTool(mcp.NewTool(
		"delete_node",
		mcp.WithDescription("Delete a node and every edge touching it"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	), s.handleDeleteNode)

	s.mcpServer.AddTool(mcp.NewTool(
		"add_edge",
		mcp.WithDescription("Connect two nodes"),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithString("label", mcp.Description("Edge label (default 'Connection')")),
		mcp.WithString("relation", mcp.Description("next, has, blends-with, supports or influences")),
	), s.handleAddEdge)

	s.mcpServer.AddTool(mcp.NewTool(
		"delete_edge",
		mcp.WithDescription("Delete an edge"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Edge id")),
	), s.handleDeleteEdge)

	s.mcpServer.AddTool(mcp.NewTool(
		"clear_graph",
		mcp.WithDescription("Remove every node and edge"),
	), s.handleClearGraph)

	s.mcpServer.AddTool(mcp.NewTool(
		"parse_transcript",
		mcp.WithDescription("Replace the graph with the elements described in a spoken transcript"),
		mcp.WithString("transcript", mcp.Required(), mcp.Description("What the musician said")),
	), s.handleParseTranscript)

	s.mcpServer.AddTool(mcp.NewTool(
		"get_graph",
		mcp.WithDescription("Return the current graph"),
	), s.handleGetGraph)
}

// --- Resources ---

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		GraphURI,
		"Session graph",
		mcp.WithResourceDescription("Nodes and edges of the jam session"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadGraph)
}

// --- Prompts ---

// PromptName is the prompt describing the jam vocabulary.
const PromptName = "jamflow-aware"

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		PromptName,
		mcp.WithPromptDescription("Explains node types, relations and how transcripts become graphs"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "id", "")
	if id == "" {
		id = valueobjects.NewNodeID().String()
	}
	cmd := commands.AddNodeCommand{
		SessionID: s.sessionID,
		NodeID:    id,
		Label:     mcp.ParseString(request, "label", ""),
		Type:      mcp.ParseString(request, "type", ""),
		Key:       mcp.ParseString(request, "key", ""),
		BPM:       int(mcp.ParseFloat64(request, "bpm", 0)),
		Section:   mcp.ParseString(request, "section", ""),
		Details:   mcp.ParseString(request, "details", ""),
	}
	args := request.GetArguments()
	_, hasX := args["x"]
	_, hasY := args["y"]
	if hasX || hasY {
		cmd.Position = &commands.Position{
			X: mcp.ParseFloat64(request, "x", 0),
			Y: mcp.ParseFloat64(request, "y", 0),
		}
	}
	return s.send(ctx, cmd, fmt.Sprintf("Added node %s", id))
}

func (s *Server) handleDeleteNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "id", "")
	return s.send(ctx, commands.DeleteNodeCommand{SessionID: s.sessionID, NodeID: id}, fmt.Sprintf("Deleted node %s", id))
}

func (s *Server) handleAddEdge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cmd := commands.AddEdgeCommand{
		SessionID: s.sessionID,
		Source:    mcp.ParseString(request, "source", ""),
		Target:    mcp.ParseString(request, "target", ""),
		Label:     mcp.ParseString(request, "label", services.DefaultEdgeLabel),
		Relation:  mcp.ParseString(request, "relation", ""),
	}
	return s.send(ctx, cmd, fmt.Sprintf("Connected %s to %s", cmd.Source, cmd.Target))
}

func (s *Server) handleDeleteEdge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "id", "")
	return s.send(ctx, commands.DeleteEdgeCommand{SessionID: s.sessionID, EdgeID: id}, fmt.Sprintf("Deleted edge %s", id))
}

func (s *Server) handleClearGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.send(ctx, commands.ClearGraphCommand{SessionID: s.sessionID}, "Cleared the graph")
}

func (s *Server) handleParseTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	transcript := mcp.ParseString(request, "transcript", "")
	outcome, err := s.parser.ProcessTranscript(ctx, aggregates.GraphID(s.sessionID), transcript)
	if err != nil {
		return s.toolError("parse_transcript", err), nil
	}
	view := queries.NewGraphView(outcome.Graph)
	summary := fmt.Sprintf("Parsed with the %s strategy: %d nodes, %d edges",
		outcome.Strategy, view.Metadata.NodeCount, view.Metadata.EdgeCount)
	return s.graphResult(summary, view)
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := s.graph(ctx)
	if err != nil {
		return s.toolError("get_graph", err), nil
	}
	return s.graphResult(fmt.Sprintf("%d nodes, %d edges", view.Metadata.NodeCount, view.Metadata.EdgeCount), view)
}

func (s *Server) handleReadGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view, err := s.graph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph: %w", err)
	}
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// send runs a command and reports the resulting graph.
func (s *Server) send(ctx context.Context, cmd bus.Command, summary string) (*mcp.CallToolResult, error) {
	if err := s.commandBus.Send(ctx, cmd); err != nil {
		return s.toolError(fmt.Sprintf("%T", cmd), err), nil
	}
	view, err := s.graph(ctx)
	if err != nil {
		return s.toolError("get_graph", err), nil
	}
	return s.graphResult(summary, view)
}

func (s *Server) graph(ctx context.Context) (*queries.GraphView, error) {
	result, err := s.queryBus.Ask(ctx, queries.GetGraphQuery{SessionID: s.sessionID})
	if err != nil {
		return nil, err
	}
	return result.(*queries.GraphView), nil
}

func (s *Server) graphResult(summary string, view *queries.GraphView) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(summary),
			mcp.NewTextContent(string(data)),
		},
	}, nil
}

// toolError reports a failure to the model; app errors keep their message.
func (s *Server) toolError(op string, err error) *mcp.CallToolResult {
	s.logger.Debug("MCP tool failed", zap.String("op", op), zap.Error(err))
	if appErr := errors.GetAppError(err); appErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", appErr.Type, appErr.Message))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	if request.Params.Name != PromptName {
		return nil, fmt.Errorf("prompt not found: %s", request.Params.Name)
	}

	promptText := `You are editing the graph of a live jam session.

Node types: bassline, drum, melody, genre, chord, vocal, fx, synth, section.
Relations: next (section order), has (section owns element), blends-with,
supports, influences.

Edge colour and width follow how well two elements fit: matching keys and
close tempos score high, clashing keys and distant tempos score low.

Use 'parse_transcript' to rebuild the graph from what the musician said.
Use 'add_node' and 'add_edge' for targeted edits and 'get_graph' to inspect.
`

	return mcp.NewGetPromptResult(
		PromptName,
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
