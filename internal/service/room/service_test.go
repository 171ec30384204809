package room

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/gorilla/websocket"
	conninmemory "github.com/partyroom/server/internal/repository/connection/inmemory"
	roominmemory "github.com/partyroom/server/internal/repository/room/inmemory"
	"github.com/partyroom/server/internal/spotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWords struct {
	words []string
	next  int
}

func (f *fakeWords) Random() string {
	w := f.words[f.next%len(f.words)]
	f.next++
	return w
}

type fakeProvider struct {
	playback  *spotify.PlaybackInfo
	tracks    []spotify.Track
	refreshed *spotify.Credentials
	err       error

	lastCreds  spotify.Credentials
	lastDevice string
	lastQuery  string
	playedUris []string
	calls      int
}

func (f *fakeProvider) CurrentTrack(ctx context.Context, creds spotify.Credentials) (*spotify.PlaybackInfo, *spotify.Credentials, error) {
	f.calls++
	f.lastCreds = creds
	return f.playback, f.refreshed, f.err
}

func (f *fakeProvider) Search(ctx context.Context, creds spotify.Credentials, query string) ([]spotify.Track, *spotify.Credentials, error) {
	f.calls++
	f.lastCreds = creds
	f.lastQuery = query
	return f.tracks, f.refreshed, f.err
}

func (f *fakeProvider) Play(ctx context.Context, creds spotify.Credentials, deviceId string) (*spotify.Credentials, error) {
	f.calls++
	f.lastCreds = creds
	f.lastDevice = deviceId
	return f.refreshed, f.err
}

func (f *fakeProvider) Pause(ctx context.Context, creds spotify.Credentials, deviceId string) (*spotify.Credentials, error) {
	f.calls++
	f.lastCreds = creds
	f.lastDevice = deviceId
	return f.refreshed, f.err
}

func (f *fakeProvider) Next(ctx context.Context, creds spotify.Credentials, deviceId string) (*spotify.Credentials, error) {
	f.calls++
	f.lastCreds = creds
	f.lastDevice = deviceId
	return f.refreshed, f.err
}

func (f *fakeProvider) Previous(ctx context.Context, creds spotify.Credentials, deviceId string) (*spotify.Credentials, error) {
	f.calls++
	f.lastCreds = creds
	f.lastDevice = deviceId
	return f.refreshed, f.err
}

func (f *fakeProvider) PlayTrack(ctx context.Context, creds spotify.Credentials, deviceId string, uri string) (*spotify.Credentials, error) {
	f.calls++
	f.lastCreds = creds
	f.lastDevice = deviceId
	f.playedUris = append(f.playedUris, uri)
	return f.refreshed, f.err
}

func newTestService(t *testing.T) (*service, *fakeProvider) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := &fakeProvider{}
	words := &fakeWords{words: []string{"apple", "banana", "cherry", "dragon"}}

	svc := NewService(
		roominmemory.NewRepo(logger),
		conninmemory.NewRepo(logger),
		provider,
		words,
		&Config{
			ScoreCap:          5,
			WrongGuessCap:     5,
			WheelOptionsLimit: 12,
			WheelOptionLength: 60,
			SuggestionsLimit:  25,
			QueueLimit:        25,
			NotesLimit:        50,
			NoteLength:        280,
		},
		logger,
	)

	return svc, provider
}

// joinPair creates a room and joins a second member, so a drawing round
// is running after it returns. The creator is the drawer.
func joinPair(t *testing.T, svc *service) (JoinRoomResponse, JoinRoomResponse) {
	t.Helper()
	ctx := context.Background()

	createResp, err := svc.CreateRoom(ctx, &JoinRoomParams{
		RoomId:  "room1",
		Pin:     "1234",
		UserKey: "alice-key",
		Name:    "alice",
		Color:   "#ff0000",
		Conn:    &websocket.Conn{},
	})
	require.NoError(t, err)

	joinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		RoomId:  "room1",
		Pin:     "1234",
		UserKey: "bob-key",
		Name:    "bob",
		Color:   "#00ff00",
		Conn:    &websocket.Conn{},
	})
	require.NoError(t, err)

	return createResp, joinResp
}

func TestJoinRoom(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	createResp, err := svc.CreateRoom(ctx, &JoinRoomParams{
		RoomId:  "room1",
		Pin:     "1234",
		UserKey: "alice-key",
		Name:    "alice",
		Color:   "#ff0000",
		Conn:    &websocket.Conn{},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, createResp.ConnId, "conn id is empty")
	assert.Len(t, createResp.Snapshot.Users, 1, "room must contain 1 user")
	assert.Nil(t, createResp.Snapshot.Game.DrawerKey, "no round with a single member")
	assert.Nil(t, createResp.Assignment, "no word with a single member")

	// duplicate create fails
	_, err = svc.CreateRoom(ctx, &JoinRoomParams{
		RoomId:  "room1",
		Pin:     "1234",
		UserKey: "eve-key",
		Name:    "eve",
		Color:   "#000000",
		Conn:    &websocket.Conn{},
	})
	require.ErrorIs(t, err, ErrRoomExists)

	// wrong pin is rejected
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{
		RoomId:  "room1",
		Pin:     "9999",
		UserKey: "bob-key",
		Name:    "bob",
		Color:   "#00ff00",
		Conn:    &websocket.Conn{},
	})
	require.ErrorIs(t, err, ErrInvalidPin)

	// second member starts the round, creator draws
	joinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		RoomId:  "room1",
		Pin:     "1234",
		UserKey: "bob-key",
		Name:    "bob",
		Color:   "#00ff00",
		Conn:    &websocket.Conn{},
	})
	require.NoError(t, err)
	assert.Len(t, joinResp.Snapshot.Users, 2, "room must contain 2 users")
	assert.Len(t, joinResp.Conns, 2, "conns must contain 2 conns")
	require.NotNil(t, joinResp.Snapshot.Game.DrawerKey)
	require.NotNil(t, joinResp.Snapshot.Game.GuesserKey)
	assert.Equal(t, "alice-key", *joinResp.Snapshot.Game.DrawerKey, "creator must draw first")
	assert.Equal(t, "bob-key", *joinResp.Snapshot.Game.GuesserKey)
	assert.True(t, joinResp.Snapshot.Game.HasWord)
	require.NotNil(t, joinResp.Assignment, "drawer must receive the word")
	assert.Equal(t, "apple", joinResp.Assignment.Word)

	// third member is rejected
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{
		RoomId:  "room1",
		Pin:     "1234",
		UserKey: "carol-key",
		Name:    "carol",
		Color:   "#0000ff",
		Conn:    &websocket.Conn{},
	})
	require.ErrorIs(t, err, ErrRoomFull)

	// unknown room
	_, err = svc.SubmitGuess(ctx, &SubmitGuessParams{RoomId: "nope", ConnId: "x", Guess: "apple"})
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestReconnectKeepsRoleAndScore(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	createResp, joinResp := joinPair(t, svc)

	// guesser scores once
	guessResp, err := svc.SubmitGuess(ctx, &SubmitGuessParams{
		RoomId: "room1",
		ConnId: joinResp.ConnId,
		Guess:  "apple",
	})
	require.NoError(t, err)
	require.Equal(t, GuessScored, guessResp.Outcome)
	assert.Equal(t, 1, guessResp.Points)

	// bob draws now; he leaves mid-round after drawing a stroke
	strokeResp, err := svc.SubmitStroke(ctx, &SubmitStrokeParams{
		RoomId: "room1",
		ConnId: joinResp.ConnId,
		Stroke: Stroke{FromX: 0.1, FromY: 0.1, ToX: 0.5, ToY: 0.5, Color: "#000", Width: 2},
	})
	require.NoError(t, err)
	assert.Len(t, strokeResp.Conns, 1, "stroke must not be echoed to the drawer")

	_, err = svc.Disconnect(ctx, &DisconnectParams{RoomId: "room1", ConnId: joinResp.ConnId})
	require.NoError(t, err)

	// rejoin with the same key: role, score, canvas and word come back
	rejoinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		RoomId:  "room1",
		Pin:     "1234",
		UserKey: "bob-key",
		Name:    "bob",
		Color:   "#00ff00",
		Conn:    &websocket.Conn{},
	})
	require.NoError(t, err)
	assert.Len(t, rejoinResp.Snapshot.Users, 2, "member must not be duplicated")
	require.NotNil(t, rejoinResp.Snapshot.Game.DrawerKey)
	assert.Equal(t, "bob-key", *rejoinResp.Snapshot.Game.DrawerKey, "drawer role must survive the reconnect")
	assert.Len(t, rejoinResp.CanvasReplay, 1, "stroke log must be replayed")
	require.NotNil(t, rejoinResp.Assignment, "reconnected drawer must get the word again")
	assert.Equal(t, "banana", rejoinResp.Assignment.Word)

	for _, u := range rejoinResp.Snapshot.Users {
		if u.Key == "bob-key" {
			assert.Equal(t, 1, u.Points, "score must survive the reconnect")
			assert.True(t, u.Connected)
		}
	}

	_ = createResp
}

func TestStaleConnReplacedOnRejoin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateRoom(ctx, &JoinRoomParams{
		RoomId:  "room1",
		Pin:     "1234",
		UserKey: "alice-key",
		Name:    "alice",
		Color:   "#ff0000",
		Conn:    &websocket.Conn{},
	})
	require.NoError(t, err)

	// same key joins again without disconnecting first
	second, err := svc.JoinRoom(ctx, &JoinRoomParams{
		RoomId:  "room1",
		Pin:     "1234",
		UserKey: "alice-key",
		Name:    "alice",
		Color:   "#ff0000",
		Conn:    &websocket.Conn{},
	})
	require.NoError(t, err)
	assert.NotNil(t, second.ReplacedConn, "stale conn must be handed back for closing")
	assert.NotEqual(t, first.ConnId, second.ConnId)
	assert.Len(t, second.Snapshot.Users, 1, "rebinding must not duplicate the member")
	assert.Len(t, second.Conns, 1)
}

func TestSetActiveGame(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	createResp, _ := joinPair(t, svc)

	resp, err := svc.SetActiveGame(ctx, &SetActiveGameParams{
		RoomId: "room1",
		ConnId: createResp.ConnId,
		Game:   "wheel",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	for _, u := range resp.Snapshot.Users {
		if u.Key == "alice-key" {
			assert.Equal(t, "WHEEL", u.CurrentGame)
		}
	}

	// unknown tab is ignored
	resp, err = svc.SetActiveGame(ctx, &SetActiveGameParams{
		RoomId: "room1",
		ConnId: createResp.ConnId,
		Game:   "CHESS",
	})
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestDisconnectClearsHostSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	createResp, _ := joinPair(t, svc)

	_, err := svc.ClaimHost(ctx, &ClaimHostParams{RoomId: "room1", ConnId: createResp.ConnId})
	require.NoError(t, err)

	_, err = svc.UpdateHostSession(ctx, &UpdateHostSessionParams{
		RoomId:      "room1",
		ConnId:      createResp.ConnId,
		ClientId:    "client-1",
		AccessToken: "token", RefreshToken: "refresh",
	})
	require.NoError(t, err)

	resp, err := svc.Disconnect(ctx, &DisconnectParams{RoomId: "room1", ConnId: createResp.ConnId})
	require.NoError(t, err)
	require.NotNil(t, resp)

	require.NotNil(t, resp.Snapshot.Music.HostKey, "host claim must survive the disconnect")
	assert.Equal(t, "alice-key", *resp.Snapshot.Music.HostKey)
	assert.False(t, resp.Snapshot.Music.HasSession, "session must be dropped")
	assert.Empty(t, resp.Snapshot.Music.ClientId)
	assert.Empty(t, resp.Snapshot.Music.HostDeviceId)

	for _, u := range resp.Snapshot.Users {
		if u.Key == "alice-key" {
			assert.Equal(t, StatusDisconnected, u.Status)
		}
	}
}
