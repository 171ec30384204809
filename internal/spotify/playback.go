package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

func playOptions(deviceId string) *spotify.PlayOptions {
	if deviceId == "" {
		return nil
	}

	id := spotify.ID(deviceId)
	return &spotify.PlayOptions{DeviceID: &id}
}

func (c *Client) CurrentTrack(ctx context.Context, creds Credentials) (*PlaybackInfo, *Credentials, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sp, refreshed, err := c.clientFor(ctx, creds)
	if err != nil {
		return nil, nil, err
	}

	state, err := sp.PlayerState(ctx)
	if err != nil {
		return nil, refreshed, fmt.Errorf("get player state: %w", err)
	}

	info := &PlaybackInfo{
		IsPlaying:  state.Playing,
		ProgressMs: int(state.Progress),
	}
	if state.Item != nil {
		info.DurationMs = int(state.Item.Duration)
		info.Track = &Track{
			Uri:     string(state.Item.URI),
			Name:    state.Item.Name,
			Artists: joinArtists(state.Item.Artists),
			Image:   smallestImage(state.Item.Album.Images),
		}
	}

	return info, refreshed, nil
}

func (c *Client) Play(ctx context.Context, creds Credentials, deviceId string) (*Credentials, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sp, refreshed, err := c.clientFor(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := sp.PlayOpt(ctx, playOptions(deviceId)); err != nil {
		return refreshed, fmt.Errorf("play: %w", err)
	}

	return refreshed, nil
}

func (c *Client) Pause(ctx context.Context, creds Credentials, deviceId string) (*Credentials, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sp, refreshed, err := c.clientFor(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := sp.PauseOpt(ctx, playOptions(deviceId)); err != nil {
		return refreshed, fmt.Errorf("pause: %w", err)
	}

	return refreshed, nil
}

func (c *Client) Next(ctx context.Context, creds Credentials, deviceId string) (*Credentials, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sp, refreshed, err := c.clientFor(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := sp.NextOpt(ctx, playOptions(deviceId)); err != nil {
		return refreshed, fmt.Errorf("next: %w", err)
	}

	return refreshed, nil
}

func (c *Client) Previous(ctx context.Context, creds Credentials, deviceId string) (*Credentials, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sp, refreshed, err := c.clientFor(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := sp.PreviousOpt(ctx, playOptions(deviceId)); err != nil {
		return refreshed, fmt.Errorf("previous: %w", err)
	}

	return refreshed, nil
}

func (c *Client) PlayTrack(ctx context.Context, creds Credentials, deviceId string, uri string) (*Credentials, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sp, refreshed, err := c.clientFor(ctx, creds)
	if err != nil {
		return nil, err
	}

	opts := playOptions(deviceId)
	if opts == nil {
		opts = &spotify.PlayOptions{}
	}
	opts.URIs = []spotify.URI{spotify.URI(uri)}

	if err := sp.PlayOpt(ctx, opts); err != nil {
		return refreshed, fmt.Errorf("play track: %w", err)
	}

	return refreshed, nil
}
