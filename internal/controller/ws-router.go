package controller

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/service/room"
	"github.com/partyroom/server/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Handle("ALIVE", handle(c, c.handleAlive))

	// drawing
	mux.Handle("DRAW", handle(c, c.handleDraw))
	mux.Handle("CLEAR_CANVAS_REQUEST", handle(c, c.handleClearCanvas))
	mux.Handle("GUESS", handle(c, c.handleGuess))
	mux.Handle("SKIP_ROUND", handle(c, c.handleSkipRound))
	mux.Handle("RESTART_GAME", handle(c, c.handleRestartGame))
	mux.Handle("SET_ACTIVE_GAME", handle(c, c.handleSetActiveGame))

	// wheel
	mux.Handle("SET_WHEEL_OPTIONS", handle(c, c.handleSetWheelOptions))
	mux.Handle("SPIN_WHEEL", handle(c, c.handleSpinWheel))

	// music
	mux.Handle("CLAIM_MUSIC_HOST", handle(c, c.handleClaimHost))
	mux.Handle("RELEASE_MUSIC_HOST", handle(c, c.handleReleaseHost))
	mux.Handle("SPOTIFY_HOST_SESSION_UPDATE", handle(c, c.handleHostSessionUpdate))
	mux.Handle("SPOTIFY_HOST_DEVICE_UPDATE", handle(c, c.handleHostDeviceUpdate))
	mux.Handle("MUSIC_SUGGEST_TRACK", handle(c, c.handleSuggestTrack))
	mux.Handle("MUSIC_ACCEPT_SUGGESTION", handle(c, c.handleAcceptSuggestion))
	mux.Handle("MUSIC_REJECT_SUGGESTION", handle(c, c.handleRejectSuggestion))
	mux.Handle("MUSIC_ADD_TO_QUEUE", handle(c, c.handleAddToQueue))
	mux.Handle("MUSIC_CONTROL_REQUEST", handle(c, c.handleMusicControl))

	// lobby
	mux.Handle("ADD_LOBBY_NOTE", handle(c, c.handleAddNote))
	mux.Handle("DELETE_LOBBY_NOTE", handle(c, c.handleDeleteNote))

	mux.HandleError(c.handleWSError)

	return mux
}

// handleWSError maps service sentinels onto the point-to-point error
// events the sender understands. Non-members get nothing back.
func (c *controller) handleWSError(ctx context.Context, conn *websocket.Conn, messageType string, err error) {
	switch {
	case errors.Is(err, room.ErrNotDrawer),
		errors.Is(err, room.ErrNotGuesser),
		errors.Is(err, room.ErrNoActiveRound):
		c.sendError(ctx, conn, "WORD_ERROR", err)
	case errors.Is(err, room.ErrNotWheelTurn):
		c.sendError(ctx, conn, "WHEEL_TURN_DENIED", err)
	case errors.Is(err, room.ErrNotHost),
		errors.Is(err, room.ErrHostTaken),
		errors.Is(err, room.ErrHostNotReady),
		errors.Is(err, room.ErrQueueEmpty):
		c.sendError(ctx, conn, "MUSIC_ERROR", err)
	case errors.Is(err, room.ErrNotMember):
		c.logger.DebugContext(ctx, "event from non-member", "type", messageType)
	default:
		c.logger.WarnContext(ctx, "ws handler error", "type", messageType, "error", err)
	}
}
