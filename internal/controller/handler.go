package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/partyroom/server/internal/service/room"
)

const roomIdLength = 8

type joinQuery struct {
	Pin     string `json:"pin" validate:"required,min=4,max=16"`
	Name    string `json:"name" validate:"required,min=1,max=32"`
	Color   string `json:"color" validate:"required,max=32"`
	UserKey string `json:"user_key" validate:"required,max=64"`
}

func (c *controller) getJoinQuery(r *http.Request) (joinQuery, bool) {
	q := joinQuery{
		Pin:     r.URL.Query().Get("pin"),
		Name:    r.URL.Query().Get("name"),
		Color:   r.URL.Query().Get("color"),
		UserKey: r.URL.Query().Get("user-key"),
	}

	if validationErrors, ok := c.validate.Validate(q); !ok {
		c.logger.DebugContext(r.Context(), "invalid join query", "errors", validationErrors)
		return joinQuery{}, false
	}

	return q, true
}

func (c *controller) createRoom(w http.ResponseWriter, r *http.Request) {
	c.admit(w, r, c.generator.GenerateRandomString(roomIdLength), true)
}

func (c *controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		c.logger.DebugContext(r.Context(), "empty room id")
		http.Error(w, "room id is required", http.StatusBadRequest)
		return
	}

	c.admit(w, r, roomId, false)
}

// admit upgrades the connection first so admission failures can be
// delivered as a JOIN_ERROR over the socket, then runs the join and
// serves inbound events until the socket dies.
func (c *controller) admit(w http.ResponseWriter, r *http.Request, roomId string, create bool) {
	q, ok := c.getJoinQuery(r)
	if !ok {
		http.Error(w, "invalid join parameters", http.StatusBadRequest)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	params := &room.JoinRoomParams{
		RoomId:  roomId,
		Pin:     q.Pin,
		UserKey: q.UserKey,
		Name:    q.Name,
		Color:   q.Color,
		Conn:    conn,
	}

	var resp room.JoinRoomResponse
	if create {
		resp, err = c.roomService.CreateRoom(r.Context(), params)
	} else {
		resp, err = c.roomService.JoinRoom(r.Context(), params)
	}
	if err != nil {
		c.logger.DebugContext(r.Context(), "admission refused", "room_id", roomId, "error", err)
		c.sendError(r.Context(), conn, "JOIN_ERROR", err)
		conn.Close()
		return
	}
	defer c.disconnect(r.Context(), roomId, resp.ConnId)

	if resp.ReplacedConn != nil {
		resp.ReplacedConn.Close()
	}

	if err := c.writeToConn(r.Context(), conn, &Output{
		Type: "CANVAS_STATE",
		Payload: map[string]any{
			"room_id": roomId,
			"strokes": resp.CanvasReplay,
		},
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to replay canvas", "error", err)
		conn.Close()
		return
	}

	c.sendAssignment(r.Context(), resp.Assignment)
	c.broadcastSnapshot(r.Context(), resp.Conns, resp.Snapshot)

	ctx := context.WithValue(r.Context(), roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, connIdCtxKey, resp.ConnId)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(r.Context(), "conn closed", "error", err)
	}
}

// disconnect runs after the request context is gone, so it detaches from
// its cancellation.
func (c *controller) disconnect(ctx context.Context, roomId, connId string) {
	ctx = context.WithoutCancel(ctx)

	resp, err := c.roomService.Disconnect(ctx, &room.DisconnectParams{
		RoomId: roomId,
		ConnId: connId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect", "error", err)
		return
	}

	if resp != nil {
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)
	}
}
