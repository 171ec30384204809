package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/service/room"
)

func (c *controller) handleClaimHost(ctx context.Context, conn *websocket.Conn, input EmptyStruct) error {
	resp, err := c.roomService.ClaimHost(ctx, &room.ClaimHostParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to claim host: %w", err)
	}

	c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)

	return nil
}

func (c *controller) handleReleaseHost(ctx context.Context, conn *websocket.Conn, input EmptyStruct) error {
	resp, err := c.roomService.ReleaseHost(ctx, &room.ReleaseHostParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to release host: %w", err)
	}

	c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)

	return nil
}

type HostSessionUpdateInput struct {
	ClientId     string `json:"client_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is a unix timestamp in seconds.
	ExpiresAt int64 `json:"expires_at"`
}

func (c *controller) handleHostSessionUpdate(ctx context.Context, conn *websocket.Conn, input HostSessionUpdateInput) error {
	resp, err := c.roomService.UpdateHostSession(ctx, &room.UpdateHostSessionParams{
		RoomId:       c.getRoomIdFromCtx(ctx),
		ConnId:       c.getConnIdFromCtx(ctx),
		ClientId:     input.ClientId,
		AccessToken:  input.AccessToken,
		RefreshToken: input.RefreshToken,
		ExpiresAt:    time.Unix(input.ExpiresAt, 0),
	})
	if err != nil {
		return fmt.Errorf("failed to update host session: %w", err)
	}

	c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)

	return nil
}

type HostDeviceUpdateInput struct {
	DeviceId string `json:"device_id"`
}

func (c *controller) handleHostDeviceUpdate(ctx context.Context, conn *websocket.Conn, input HostDeviceUpdateInput) error {
	resp, err := c.roomService.UpdateHostDevice(ctx, &room.UpdateHostDeviceParams{
		RoomId:   c.getRoomIdFromCtx(ctx),
		ConnId:   c.getConnIdFromCtx(ctx),
		DeviceId: input.DeviceId,
	})
	if err != nil {
		return fmt.Errorf("failed to update host device: %w", err)
	}

	c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)

	return nil
}

type SuggestTrackInput struct {
	Track room.TrackInput `json:"track"`
}

func (c *controller) handleSuggestTrack(ctx context.Context, conn *websocket.Conn, input SuggestTrackInput) error {
	resp, err := c.roomService.SuggestTrack(ctx, &room.SuggestTrackParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
		Track:  input.Track,
	})
	if err != nil {
		return fmt.Errorf("failed to suggest track: %w", err)
	}

	if resp != nil {
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)
	}

	return nil
}

type SuggestionDecisionInput struct {
	SuggestionId string `json:"suggestion_id"`
}

func (c *controller) handleAcceptSuggestion(ctx context.Context, conn *websocket.Conn, input SuggestionDecisionInput) error {
	resp, err := c.roomService.AcceptSuggestion(ctx, &room.SuggestionDecisionParams{
		RoomId:       c.getRoomIdFromCtx(ctx),
		ConnId:       c.getConnIdFromCtx(ctx),
		SuggestionId: input.SuggestionId,
	})
	if err != nil {
		return fmt.Errorf("failed to accept suggestion: %w", err)
	}

	if resp != nil {
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)
	}

	return nil
}

func (c *controller) handleRejectSuggestion(ctx context.Context, conn *websocket.Conn, input SuggestionDecisionInput) error {
	resp, err := c.roomService.RejectSuggestion(ctx, &room.SuggestionDecisionParams{
		RoomId:       c.getRoomIdFromCtx(ctx),
		ConnId:       c.getConnIdFromCtx(ctx),
		SuggestionId: input.SuggestionId,
	})
	if err != nil {
		return fmt.Errorf("failed to reject suggestion: %w", err)
	}

	if resp != nil {
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)
	}

	return nil
}

type AddToQueueInput struct {
	Track room.TrackInput `json:"track"`
}

func (c *controller) handleAddToQueue(ctx context.Context, conn *websocket.Conn, input AddToQueueInput) error {
	resp, err := c.roomService.AddToQueue(ctx, &room.AddToQueueParams{
		RoomId: c.getRoomIdFromCtx(ctx),
		ConnId: c.getConnIdFromCtx(ctx),
		Track:  input.Track,
	})
	if err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	if resp != nil {
		c.broadcastSnapshot(ctx, resp.Conns, resp.Snapshot)
	}

	return nil
}

type MusicControlInput struct {
	Action   string `json:"action"`
	Query    string `json:"query"`
	TrackUri string `json:"track_uri"`
}

// handleMusicControl always answers the requester with a
// MUSIC_CONTROL_RESPONSE, success or not, so the client can settle its
// pending request.
func (c *controller) handleMusicControl(ctx context.Context, conn *websocket.Conn, input MusicControlInput) error {
	resp, err := c.roomService.MusicControl(ctx, &room.MusicControlParams{
		RoomId:   c.getRoomIdFromCtx(ctx),
		ConnId:   c.getConnIdFromCtx(ctx),
		Action:   room.ControlAction(input.Action),
		Query:    input.Query,
		TrackUri: input.TrackUri,
	})
	if err != nil {
		return c.writeToConn(ctx, conn, &Output{
			Type: "MUSIC_CONTROL_RESPONSE",
			Payload: map[string]any{
				"action": input.Action,
				"ok":     false,
				"error":  err.Error(),
			},
		})
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type: "MUSIC_CONTROL_RESPONSE",
		Payload: map[string]any{
			"action":   resp.Action,
			"ok":       true,
			"playback": resp.Playback,
			"tracks":   resp.Tracks,
		},
	}); err != nil {
		return fmt.Errorf("failed to send control response: %w", err)
	}

	if resp.Snapshot != nil {
		c.broadcastSnapshot(ctx, resp.Conns, *resp.Snapshot)
	}

	return nil
}
