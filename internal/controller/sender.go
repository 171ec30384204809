package controller

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/service/room"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c *controller) writeToConn(ctx context.Context, conn *websocket.Conn, out *Output) error {
	if conn == nil {
		return nil
	}

	return conn.WriteJSON(out)
}

// broadcast writes to every connection, logging write failures instead
// of aborting so one dead socket does not starve the rest of the room.
func (c *controller) broadcast(ctx context.Context, conns []*websocket.Conn, out *Output) {
	for _, conn := range conns {
		if err := conn.WriteJSON(out); err != nil {
			c.logger.WarnContext(ctx, "failed to write to conn", "error", err)
		}
	}
}

func (c *controller) broadcastSnapshot(ctx context.Context, conns []*websocket.Conn, snapshot room.Snapshot) {
	c.broadcast(ctx, conns, &Output{
		Type:    "ROOM_STATE",
		Payload: snapshot,
	})
}

func (c *controller) sendAssignment(ctx context.Context, assignment *room.WordAssignment) {
	if assignment == nil {
		return
	}

	if err := c.writeToConn(ctx, assignment.Conn, &Output{
		Type:    "ASSIGN_WORD",
		Payload: map[string]any{"word": assignment.Word},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to send word assignment", "error", err)
	}
}

func (c *controller) sendError(ctx context.Context, conn *websocket.Conn, eventType string, err error) {
	if werr := c.writeToConn(ctx, conn, &Output{
		Type:    eventType,
		Payload: map[string]any{"message": err.Error()},
	}); werr != nil {
		c.logger.WarnContext(ctx, "failed to send error", "error", werr)
	}
}
