package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/repository/room"
	"github.com/partyroom/server/internal/spotify"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
	ErrInvalidPin   = errors.New("invalid pin")
	ErrRoomFull     = errors.New("room is full")
	ErrNotMember    = errors.New("sender is not a room member")

	ErrNotDrawer     = errors.New("only the current drawer can do that")
	ErrNotGuesser    = errors.New("only the current guesser can do that")
	ErrNoActiveRound = errors.New("no active round")

	ErrNotWheelTurn = errors.New("it is not your turn to spin")

	ErrNotHost      = errors.New("only the music host can do that")
	ErrHostTaken    = errors.New("music host already claimed")
	ErrHostNotReady = errors.New("music host is not ready")
	ErrQueueEmpty   = errors.New("queue is empty")

	ErrUnknownControlAction = errors.New("unknown control action")
)

type iRoomRepo interface {
	Create(roomId string, init func() *room.State, fn func(*room.State) error) error
	Update(roomId string, fn func(*room.State) error) error
	UpdateOrCreate(roomId string, init func() *room.State, fn func(*room.State, bool) error) error
}

type iConnRepo interface {
	Add(*websocket.Conn, string) error
	RemoveByConnId(string) error
	GetConn(string) (*websocket.Conn, error)
	GetConns([]string) []*websocket.Conn
}

type iMusicProvider interface {
	CurrentTrack(context.Context, spotify.Credentials) (*spotify.PlaybackInfo, *spotify.Credentials, error)
	Search(context.Context, spotify.Credentials, string) ([]spotify.Track, *spotify.Credentials, error)
	Play(ctx context.Context, creds spotify.Credentials, deviceId string) (*spotify.Credentials, error)
	Pause(ctx context.Context, creds spotify.Credentials, deviceId string) (*spotify.Credentials, error)
	Next(ctx context.Context, creds spotify.Credentials, deviceId string) (*spotify.Credentials, error)
	Previous(ctx context.Context, creds spotify.Credentials, deviceId string) (*spotify.Credentials, error)
	PlayTrack(ctx context.Context, creds spotify.Credentials, deviceId string, uri string) (*spotify.Credentials, error)
}

type iWordPicker interface {
	Random() string
}

type Config struct {
	ScoreCap          int
	WrongGuessCap     int
	WheelOptionsLimit int
	WheelOptionLength int
	SuggestionsLimit  int
	QueueLimit        int
	NotesLimit        int
	NoteLength        int
}

type service struct {
	roomRepo iRoomRepo
	connRepo iConnRepo
	provider iMusicProvider
	words    iWordPicker
	cfg      Config
	logger   *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, provider iMusicProvider, words iWordPicker, cfg *Config, logger *slog.Logger) *service {
	return &service{
		roomRepo: roomRepo,
		connRepo: connRepo,
		provider: provider,
		words:    words,
		cfg:      *cfg,
		logger:   logger,
	}
}

// truncateRunes bounds s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}

// mapRepoErr translates registry sentinels into service-level ones.
func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, room.ErrNotFound):
		return ErrRoomNotFound
	case errors.Is(err, room.ErrAlreadyExists):
		return ErrRoomExists
	}

	return err
}
