package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/service/room"
	"github.com/partyroom/server/pkg/validator"
	"github.com/partyroom/server/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	SetActiveGame(context.Context, *room.SetActiveGameParams) (*room.SetActiveGameResponse, error)
	Disconnect(context.Context, *room.DisconnectParams) (*room.DisconnectResponse, error)

	SubmitStroke(context.Context, *room.SubmitStrokeParams) (room.SubmitStrokeResponse, error)
	ClearCanvas(context.Context, *room.ClearCanvasParams) (room.ClearCanvasResponse, error)
	SubmitGuess(context.Context, *room.SubmitGuessParams) (room.SubmitGuessResponse, error)
	SkipRound(context.Context, *room.SkipRoundParams) (room.SkipRoundResponse, error)
	RestartGame(context.Context, *room.RestartGameParams) (room.RestartGameResponse, error)

	SetWheelOptions(context.Context, *room.SetWheelOptionsParams) (*room.SetWheelOptionsResponse, error)
	SpinWheel(context.Context, *room.SpinWheelParams) (*room.SpinWheelResponse, error)

	ClaimHost(context.Context, *room.ClaimHostParams) (room.ClaimHostResponse, error)
	ReleaseHost(context.Context, *room.ReleaseHostParams) (room.ReleaseHostResponse, error)
	UpdateHostSession(context.Context, *room.UpdateHostSessionParams) (room.UpdateHostSessionResponse, error)
	UpdateHostDevice(context.Context, *room.UpdateHostDeviceParams) (room.UpdateHostDeviceResponse, error)
	SuggestTrack(context.Context, *room.SuggestTrackParams) (*room.SuggestTrackResponse, error)
	AcceptSuggestion(context.Context, *room.SuggestionDecisionParams) (*room.SuggestionDecisionResponse, error)
	RejectSuggestion(context.Context, *room.SuggestionDecisionParams) (*room.SuggestionDecisionResponse, error)
	AddToQueue(context.Context, *room.AddToQueueParams) (*room.AddToQueueResponse, error)
	MusicControl(context.Context, *room.MusicControlParams) (room.MusicControlResponse, error)

	AddNote(context.Context, *room.AddNoteParams) (*room.AddNoteResponse, error)
	DeleteNote(context.Context, *room.DeleteNoteParams) (*room.DeleteNoteResponse, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type controller struct {
	roomService iRoomService
	generator   iGenerator
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, generator iGenerator, logger *slog.Logger) *controller {
	c := &controller{
		roomService: roomService,
		generator:   generator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
