package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/service/room"
	"github.com/partyroom/server/pkg/wsrouter"
)

// handle adapts a typed handler to the ws mux. Methods cannot be
// generic, so the controller is passed in explicitly.
func handle[T any](c *controller, fn func(ctx context.Context, conn *websocket.Conn, input T) error) wsrouter.HandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("failed to decode payload: %w", err)
			}
		}

		return fn(ctx, conn, input)
	}
}

type EmptyStruct struct{}

func (es *EmptyStruct) UnmarshalJSON([]byte) error {
	return nil
}

func (c *controller) handleAlive(ctx context.Context, conn *websocket.Conn, input EmptyStruct) error {
	return nil
}

func (c *controller) handleDraw(ctx context.Context, conn *websocket.Conn, input room.Stroke) error {
	resp, err := c.roomService.SubmitStroke(ctx, &room.SubmitStrokeParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
		Stroke: input,
	})
	if err != nil {
		return fmt.Errorf("failed to submit stroke: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "DRAW",
		Payload: resp.Stroke,
	})

	return nil
}

func (c *controller) handleClearCanvas(ctx context.Context, conn *websocket.Conn, input EmptyStruct) error {
	resp, err := c.roomService.ClearCanvas(ctx, &room.ClearCanvasParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to clear canvas: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{Type: "CLEAR_CANVAS", Payload: EmptyStruct{}})

	return nil
}

type GuessInput struct {
	Guess string `json:"guess"`
}

func (c *controller) handleGuess(ctx context.Context, conn *websocket.Conn, input GuessInput) error {
	resp, err := c.roomService.SubmitGuess(ctx, &room.SubmitGuessParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
		Guess:  input.Guess,
	})
	if err != nil {
		return fmt.Errorf("failed to submit guess: %w", err)
	}

	switch resp.Outcome {
	case room.GuessWrong:
		if err := c.writeToConn(ctx, resp.GuesserConn, &Output{
			Type: "WRONG_GUESS",
			Payload: map[string]any{
				"count": resp.WrongGuesses,
				"max":   resp.WrongGuessCap,
			},
		}); err != nil {
			return fmt.Errorf("failed to send wrong guess: %w", err)
		}

	case room.GuessSkipped:
		c.broadcast(ctx, resp.Conns, &Output{
			Type:    "ROUND_SKIPPED",
			Payload: map[string]any{"word": resp.Word},
		})
		c.sendAssignment(ctx, resp.Assignment)
		c.broadcast(ctx, resp.Conns, &Output{Type: "CLEAR_CANVAS", Payload: EmptyStruct{}})
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)

	case room.GuessScored:
		c.broadcast(ctx, resp.Conns, &Output{
			Type: "ROUND_RESULT",
			Payload: map[string]any{
				"word":        resp.Word,
				"scorer_key":  resp.ScorerKey,
				"scorer_name": resp.ScorerName,
				"points":      resp.Points,
				"score_cap":   resp.ScoreCap,
			},
		})
		c.sendAssignment(ctx, resp.Assignment)
		c.broadcast(ctx, resp.Conns, &Output{Type: "CLEAR_CANVAS", Payload: EmptyStruct{}})
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)

	case room.GuessWon:
		c.broadcast(ctx, resp.Conns, &Output{
			Type: "GAME_WINNER",
			Payload: map[string]any{
				"word":      resp.Word,
				"user_key":  resp.ScorerKey,
				"name":      resp.ScorerName,
				"points":    resp.Points,
				"score_cap": resp.ScoreCap,
			},
		})
		c.broadcast(ctx, resp.Conns, &Output{Type: "CLEAR_CANVAS", Payload: EmptyStruct{}})
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)
	}

	return nil
}

func (c *controller) handleSkipRound(ctx context.Context, conn *websocket.Conn, input EmptyStruct) error {
	resp, err := c.roomService.SkipRound(ctx, &room.SkipRoundParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to skip round: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "ROUND_SKIPPED",
		Payload: map[string]any{"word": resp.Word},
	})
	c.sendAssignment(ctx, resp.Assignment)
	c.broadcast(ctx, resp.Conns, &Output{Type: "CLEAR_CANVAS", Payload: EmptyStruct{}})
	c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)

	return nil
}

func (c *controller) handleRestartGame(ctx context.Context, conn *websocket.Conn, input EmptyStruct) error {
	resp, err := c.roomService.RestartGame(ctx, &room.RestartGameParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to restart game: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{Type: "GAME_RESTARTED", Payload: EmptyStruct{}})
	c.broadcast(ctx, resp.Conns, &Output{Type: "CLEAR_CANVAS", Payload: EmptyStruct{}})
	c.sendAssignment(ctx, resp.Assignment)
	c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)

	return nil
}

type SetActiveGameInput struct {
	Game string `json:"game"`
}

func (c *controller) handleSetActiveGame(ctx context.Context, conn *websocket.Conn, input SetActiveGameInput) error {
	resp, err := c.roomService.SetActiveGame(ctx, &room.SetActiveGameParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
		Game:   input.Game,
	})
	if err != nil {
		return fmt.Errorf("failed to set active game: %w", err)
	}

	if resp != nil {
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)
	}

	return nil
}

type SetWheelOptionsInput struct {
	Options []string `json:"options"`
}

func (c *controller) handleSetWheelOptions(ctx context.Context, conn *websocket.Conn, input SetWheelOptionsInput) error {
	resp, err := c.roomService.SetWheelOptions(ctx, &room.SetWheelOptionsParams{
		RoomId:  c.getRoomIdFromCtx(ctx),
		ConnId:  c.getConnIdFromCtx(ctx),
		Options: input.Options,
	})
	if err != nil {
		return fmt.Errorf("failed to set wheel options: %w", err)
	}

	if resp != nil {
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)
	}

	return nil
}

func (c *controller) handleSpinWheel(ctx context.Context, conn *websocket.Conn, input EmptyStruct) error {
	resp, err := c.roomService.SpinWheel(ctx, &room.SpinWheelParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to spin wheel: %w", err)
	}

	if resp == nil {
		return nil
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "WHEEL_RESULT",
		Payload: map[string]any{
			"option":      resp.Option,
			"index":       resp.Index,
			"spinner_key": resp.SpinnerKey,
		},
	})
	c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)

	return nil
}

type AddNoteInput struct {
	Text string `json:"text"`
}

func (c *controller) handleAddNote(ctx context.Context, conn *websocket.Conn, input AddNoteInput) error {
	resp, err := c.roomService.AddNote(ctx, &room.AddNoteParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
		Text:   input.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}

	if resp != nil {
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)
	}

	return nil
}

type DeleteNoteInput struct {
	NoteId string `json:"note_id"`
}

func (c *controller) handleDeleteNote(ctx context.Context, conn *websocket.Conn, input DeleteNoteInput) error {
	resp, err := c.roomService.DeleteNote(ctx, &room.DeleteNoteParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
		NoteId: input.NoteId,
	})
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	if resp != nil {
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)
	}

	return nil
}
