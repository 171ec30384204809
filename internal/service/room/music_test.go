package room

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/partyroom/server/internal/spotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHost(t *testing.T, svc *service, connId string) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.ClaimHost(ctx, &ClaimHostParams{RoomId: "room1", ConnId: connId})
	require.NoError(t, err)

	_, err = svc.UpdateHostSession(ctx, &UpdateHostSessionParams{
		RoomId:       "room1",
		ConnId:       connId,
		ClientId:     "client-1",
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.UpdateHostDevice(ctx, &UpdateHostDeviceParams{
		RoomId:   "room1",
		ConnId:   connId,
		DeviceId: "device-1",
	})
	require.NoError(t, err)
}

func TestClaimHostExclusive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	createResp, joinResp := joinPair(t, svc)

	resp, err := svc.ClaimHost(ctx, &ClaimHostParams{RoomId: "room1", ConnId: createResp.ConnId})
	require.NoError(t, err)
	require.NotNil(t, resp.Snapshot.Music.HostKey)
	assert.Equal(t, "alice-key", *resp.Snapshot.Music.HostKey)
	assert.Equal(t, "alice", resp.Snapshot.Music.HostName)

	// second claim while the host is connected fails
	_, err = svc.ClaimHost(ctx, &ClaimHostParams{RoomId: "room1", ConnId: joinResp.ConnId})
	require.ErrorIs(t, err, ErrHostTaken)

	// non-host cannot push a session or release
	_, err = svc.UpdateHostSession(ctx, &UpdateHostSessionParams{
		RoomId: "room1", ConnId: joinResp.ConnId, AccessToken: "x",
	})
	require.ErrorIs(t, err, ErrNotHost)
	_, err = svc.ReleaseHost(ctx, &ReleaseHostParams{RoomId: "room1", ConnId: joinResp.ConnId})
	require.ErrorIs(t, err, ErrNotHost)

	// after the host disconnects, the claim is up for grabs
	_, err = svc.Disconnect(ctx, &DisconnectParams{RoomId: "room1", ConnId: createResp.ConnId})
	require.NoError(t, err)

	resp, err = svc.ClaimHost(ctx, &ClaimHostParams{RoomId: "room1", ConnId: joinResp.ConnId})
	require.NoError(t, err)
	require.NotNil(t, resp.Snapshot.Music.HostKey)
	assert.Equal(t, "bob-key", *resp.Snapshot.Music.HostKey)
}

func TestReleaseHostClearsEverything(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	createResp, _ := joinPair(t, svc)
	setupHost(t, svc, createResp.ConnId)

	resp, err := svc.ReleaseHost(ctx, &ReleaseHostParams{RoomId: "room1", ConnId: createResp.ConnId})
	require.NoError(t, err)
	assert.Nil(t, resp.Snapshot.Music.HostKey)
	assert.Empty(t, resp.Snapshot.Music.HostName)
	assert.Empty(t, resp.Snapshot.Music.HostDeviceId)
	assert.Empty(t, resp.Snapshot.Music.ClientId)
	assert.False(t, resp.Snapshot.Music.HasSession)
}

func TestSuggestionFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	createResp, joinResp := joinPair(t, svc)
	setupHost(t, svc, createResp.ConnId)

	// malformed candidates are ignored
	resp, err := svc.SuggestTrack(ctx, &SuggestTrackParams{
		RoomId: "room1",
		ConnId: joinResp.ConnId,
		Track:  TrackInput{Uri: "https://open.spotify.com/track/123", Name: "Song"},
	})
	require.NoError(t, err)
	assert.Nil(t, resp)

	resp, err = svc.SuggestTrack(ctx, &SuggestTrackParams{
		RoomId: "room1",
		ConnId: joinResp.ConnId,
		Track:  TrackInput{Uri: "spotify:track:abc123", Name: "  Song  ", Artists: "Artist"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Len(t, resp.Snapshot.Music.Suggestions, 1)
	suggestion := resp.Snapshot.Music.Suggestions[0]
	assert.Equal(t, "Song", suggestion.Name)
	assert.Equal(t, "bob-key", suggestion.AddedByKey)
	assert.Equal(t, "bob", suggestion.AddedByName)
	assert.NotEmpty(t, suggestion.Id)

	// only the host decides
	_, err = svc.AcceptSuggestion(ctx, &SuggestionDecisionParams{
		RoomId: "room1", ConnId: joinResp.ConnId, SuggestionId: suggestion.Id,
	})
	require.ErrorIs(t, err, ErrNotHost)

	// unknown id is a no-op
	decisionResp, err := svc.AcceptSuggestion(ctx, &SuggestionDecisionParams{
		RoomId: "room1", ConnId: createResp.ConnId, SuggestionId: "missing",
	})
	require.NoError(t, err)
	assert.Nil(t, decisionResp)

	decisionResp, err = svc.AcceptSuggestion(ctx, &SuggestionDecisionParams{
		RoomId: "room1", ConnId: createResp.ConnId, SuggestionId: suggestion.Id,
	})
	require.NoError(t, err)
	require.NotNil(t, decisionResp)
	assert.Empty(t, decisionResp.Snapshot.Music.Suggestions)
	require.Len(t, decisionResp.Snapshot.Music.Queue, 1)
	assert.Equal(t, "alice-key", decisionResp.Snapshot.Music.Queue[0].AddedByKey,
		"accepted entry must be re-tagged with the host")
	assert.Equal(t, "spotify:track:abc123", decisionResp.Snapshot.Music.Queue[0].Uri)
}

func TestRejectSuggestion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	createResp, joinResp := joinPair(t, svc)
	setupHost(t, svc, createResp.ConnId)

	resp, err := svc.SuggestTrack(ctx, &SuggestTrackParams{
		RoomId: "room1",
		ConnId: joinResp.ConnId,
		Track:  TrackInput{Uri: "spotify:track:abc123", Name: "Song"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	decisionResp, err := svc.RejectSuggestion(ctx, &SuggestionDecisionParams{
		RoomId:       "room1",
		ConnId:       createResp.ConnId,
		SuggestionId: resp.Snapshot.Music.Suggestions[0].Id,
	})
	require.NoError(t, err)
	require.NotNil(t, decisionResp)
	assert.Empty(t, decisionResp.Snapshot.Music.Suggestions)
	assert.Empty(t, decisionResp.Snapshot.Music.Queue)
}

func TestMusicControlRequiresReadyHost(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	createResp, _ := joinPair(t, svc)

	_, err := svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: createResp.ConnId, Action: ControlPlay,
	})
	require.ErrorIs(t, err, ErrHostNotReady)

	// session without a device is enough for reads but not playback
	_, err = svc.ClaimHost(ctx, &ClaimHostParams{RoomId: "room1", ConnId: createResp.ConnId})
	require.NoError(t, err)
	_, err = svc.UpdateHostSession(ctx, &UpdateHostSessionParams{
		RoomId: "room1", ConnId: createResp.ConnId,
		ClientId: "client-1", AccessToken: "access", RefreshToken: "refresh",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: createResp.ConnId, Action: ControlPlay,
	})
	require.ErrorIs(t, err, ErrHostNotReady)

	_, err = svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: createResp.ConnId, Action: ControlCurrentTrack,
	})
	require.NoError(t, err)

	_, err = svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: createResp.ConnId, Action: "DANCE",
	})
	require.ErrorIs(t, err, ErrUnknownControlAction)
}

func TestMusicControlUsesHostSession(t *testing.T) {
	svc, provider := newTestService(t)
	ctx := context.Background()

	createResp, joinResp := joinPair(t, svc)
	setupHost(t, svc, createResp.ConnId)

	provider.playback = &spotify.PlaybackInfo{
		IsPlaying: true,
		Track:     &spotify.Track{Uri: "spotify:track:now", Name: "Now Playing"},
	}
	provider.tracks = []spotify.Track{{Uri: "spotify:track:hit", Name: "Hit"}}

	// any member may read playback through the host's session
	resp, err := svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: joinResp.ConnId, Action: ControlCurrentTrack,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Playback)
	assert.True(t, resp.Playback.IsPlaying)
	assert.Equal(t, "access", provider.lastCreds.AccessToken)
	assert.Equal(t, "client-1", provider.lastCreds.ClientId)

	searchResp, err := svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: joinResp.ConnId, Action: ControlSearch, Query: "  hit  ",
	})
	require.NoError(t, err)
	require.Len(t, searchResp.Tracks, 1)
	assert.Equal(t, "hit", provider.lastQuery)

	playResp, err := svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: joinResp.ConnId, Action: ControlPlay,
	})
	require.NoError(t, err)
	assert.Equal(t, "device-1", provider.lastDevice)
	assert.Nil(t, playResp.Snapshot, "plain playback actions do not change room state")

	// provider failures surface to the requester only
	provider.err = errors.New("upstream down")
	_, err = svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: joinResp.ConnId, Action: ControlPause,
	})
	require.Error(t, err)
	provider.err = nil
}

func TestPlayQueuedNextDequeuesOnce(t *testing.T) {
	svc, provider := newTestService(t)
	ctx := context.Background()

	createResp, joinResp := joinPair(t, svc)
	setupHost(t, svc, createResp.ConnId)

	for _, uri := range []string{"spotify:track:one", "spotify:track:two"} {
		resp, err := svc.AddToQueue(ctx, &AddToQueueParams{
			RoomId: "room1",
			ConnId: createResp.ConnId,
			Track:  TrackInput{Uri: uri, Name: "Track"},
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
	}

	// only the host may drive the queue
	_, err := svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: joinResp.ConnId, Action: ControlPlayQueuedNext,
	})
	require.ErrorIs(t, err, ErrNotHost)

	resp, err := svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: createResp.ConnId, Action: ControlPlayQueuedNext,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"spotify:track:one"}, provider.playedUris)
	require.NotNil(t, resp.Snapshot, "a dequeue must broadcast the new state")
	require.Len(t, resp.Snapshot.Music.Queue, 1)
	assert.Equal(t, "spotify:track:two", resp.Snapshot.Music.Queue[0].Uri)

	// a failed play leaves the queue alone
	provider.err = errors.New("upstream down")
	_, err = svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: createResp.ConnId, Action: ControlPlayQueuedNext,
	})
	require.Error(t, err)
	provider.err = nil

	resp, err = svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: createResp.ConnId, Action: ControlPlayQueuedNext,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Snapshot)
	assert.Empty(t, resp.Snapshot.Music.Queue)

	_, err = svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: createResp.ConnId, Action: ControlPlayQueuedNext,
	})
	require.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRefreshedTokensAreStored(t *testing.T) {
	svc, provider := newTestService(t)
	ctx := context.Background()

	createResp, _ := joinPair(t, svc)
	setupHost(t, svc, createResp.ConnId)

	provider.refreshed = &spotify.Credentials{
		ClientId:     "client-1",
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		Expiry:       time.Now().Add(time.Hour),
	}

	_, err := svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: createResp.ConnId, Action: ControlCurrentTrack,
	})
	require.NoError(t, err)

	// the next call must go out with the refreshed bundle
	provider.refreshed = nil
	_, err = svc.MusicControl(ctx, &MusicControlParams{
		RoomId: "room1", ConnId: createResp.ConnId, Action: ControlCurrentTrack,
	})
	require.NoError(t, err)
	assert.Equal(t, "access-2", provider.lastCreds.AccessToken)
	assert.Equal(t, "refresh-2", provider.lastCreds.RefreshToken)
}

func TestQueueIsBounded(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	createResp, _ := joinPair(t, svc)
	setupHost(t, svc, createResp.ConnId)

	var last *AddToQueueResponse
	for i := 0; i < 30; i++ {
		resp, err := svc.AddToQueue(ctx, &AddToQueueParams{
			RoomId: "room1",
			ConnId: createResp.ConnId,
			Track:  TrackInput{Uri: "spotify:track:abc", Name: "Track"},
		})
		require.NoError(t, err)
		last = resp
	}

	require.NotNil(t, last)
	assert.Len(t, last.Snapshot.Music.Queue, 25, "oldest entries must be evicted")
}
