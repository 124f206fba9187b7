package handlers

import (
	"go.uber.org/zap"

	"jamflow/application/commands"
	"jamflow/application/commands/bus"
)

// Register binds every session command to its handler on b.
func Register(b *bus.CommandBus, sessions Sessions, edges Edges, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	session := NewSessionHandler(sessions, logger)
	addNode := NewAddNodeHandler(sessions, logger)
	updateNode := NewUpdateNodeHandler(sessions, logger)
	deleteNode := NewDeleteNodeHandler(sessions, logger)
	bulkDelete := NewBulkDeleteNodesHandler(sessions, logger)
	move := NewMoveNodesHandler(sessions)
	edge := NewEdgeHandler(edges, logger)

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateSessionCommand{}, bus.HandlerFor(session.HandleCreate)},
		{commands.DeleteSessionCommand{}, bus.HandlerFor(session.HandleDelete)},
		{commands.SetModeCommand{}, bus.HandlerFor(session.HandleSetMode)},
		{commands.ClearGraphCommand{}, bus.HandlerFor(session.HandleClear)},
		{commands.AddNodeCommand{}, bus.HandlerFor(addNode.Handle)},
		{commands.UpdateNodeCommand{}, bus.HandlerFor(updateNode.Handle)},
		{commands.DeleteNodeCommand{}, bus.HandlerFor(deleteNode.Handle)},
		{commands.BulkDeleteNodesCommand{}, bus.HandlerFor(bulkDelete.Handle)},
		{commands.MoveNodesCommand{}, bus.HandlerFor(move.Handle)},
		{commands.AddEdgeCommand{}, bus.HandlerFor(edge.HandleAdd)},
		{commands.DeleteEdgeCommand{}, bus.HandlerFor(edge.HandleDelete)},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
