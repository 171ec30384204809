package room

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/repository/room"
)

const roomCapacity = 2

type JoinRoomParams struct {
	RoomId  string
	Pin     string
	UserKey string
	Name    string
	Color   string
	Conn    *websocket.Conn
}

type JoinRoomResponse struct {
	ConnId string
	// ReplacedConn is the previous live connection of the same user key,
	// already unbound and ready to be closed by the caller.
	ReplacedConn *websocket.Conn
	Conns        []*websocket.Conn
	Snapshot     Snapshot
	CanvasReplay []room.Stroke
	Assignment   *WordAssignment
}

// CreateRoom admits the creator into a brand-new room. Unlike JoinRoom it
// fails when the room id is already taken.
func (s service) CreateRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	var resp JoinRoomResponse
	err := s.roomRepo.Create(params.RoomId, func() *room.State {
		return &room.State{Pin: params.Pin}
	}, func(st *room.State) error {
		r, err := s.admit(ctx, st, params, true)
		if err != nil {
			return err
		}

		resp = *r
		return nil
	})
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to create room: %w", mapRepoErr(err))
	}

	s.logger.InfoContext(ctx, "room created", "room_id", params.RoomId, "user_key", params.UserKey)
	return resp, nil
}

// JoinRoom admits a member, creating the room on first join. The same
// user key rebinds to the new connection and keeps its role and score.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	var resp JoinRoomResponse
	err := s.roomRepo.UpdateOrCreate(params.RoomId, func() *room.State {
		return &room.State{Pin: params.Pin}
	}, func(st *room.State, created bool) error {
		r, err := s.admit(ctx, st, params, created)
		if err != nil {
			return err
		}

		resp = *r
		return nil
	})
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to join room: %w", mapRepoErr(err))
	}

	s.logger.InfoContext(ctx, "user joined room", "room_id", params.RoomId, "user_key", params.UserKey)
	return resp, nil
}

func (s service) admit(ctx context.Context, st *room.State, params *JoinRoomParams, created bool) (*JoinRoomResponse, error) {
	if !created && st.Pin != params.Pin {
		return nil, ErrInvalidPin
	}

	u := st.UserByKey(params.UserKey)
	if u == nil {
		if len(st.Users) >= roomCapacity {
			return nil, ErrRoomFull
		}

		u = &room.User{
			Key:         params.UserKey,
			Name:        strings.TrimSpace(params.Name),
			Color:       params.Color,
			CurrentGame: room.GameTabDrawing,
		}
		st.Users = append(st.Users, u)
	} else {
		if name := strings.TrimSpace(params.Name); name != "" {
			u.Name = name
		}
		if params.Color != "" {
			u.Color = params.Color
		}
	}

	resp := JoinRoomResponse{ConnId: uuid.NewString()}

	if u.ConnId != nil {
		if old, err := s.connRepo.GetConn(*u.ConnId); err == nil {
			resp.ReplacedConn = old
		}
		if err := s.connRepo.RemoveByConnId(*u.ConnId); err != nil {
			s.logger.WarnContext(ctx, "failed to unbind stale connection", "error", err)
		}
	}
	if err := s.connRepo.Add(params.Conn, resp.ConnId); err != nil {
		return nil, fmt.Errorf("failed to register connection: %w", err)
	}
	u.ConnId = &resp.ConnId

	roundStarted := s.ensureRound(st)
	syncWheelTurn(st)

	// The drawer gets the word point-to-point: on round start, and again
	// when the drawer itself reconnects mid-round.
	if st.Game.Word != nil && st.Game.DrawerKey != nil {
		drawer := st.UserByKey(*st.Game.DrawerKey)
		if drawer != nil && drawer.Connected() && (roundStarted || drawer.Key == u.Key) {
			if conn, err := s.connRepo.GetConn(*drawer.ConnId); err == nil {
				resp.Assignment = &WordAssignment{Conn: conn, Word: *st.Game.Word}
			}
		}
	}

	resp.CanvasReplay = append([]room.Stroke(nil), st.Game.Strokes...)
	resp.Snapshot = s.snapshot(st)
	resp.Conns = s.connRepo.GetConns(st.ConnIds())

	return &resp, nil
}

type SetActiveGameParams struct {
	RoomId string
	ConnId string
	Game   string
}

type SetActiveGameResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

// SetActiveGame records which tab the member is viewing. Unknown tabs and
// unknown senders are ignored.
func (s service) SetActiveGame(ctx context.Context, params *SetActiveGameParams) (*SetActiveGameResponse, error) {
	tab := room.GameTab(strings.ToUpper(strings.TrimSpace(params.Game)))
	if !tab.Valid() {
		return nil, nil
	}

	var resp *SetActiveGameResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		u := st.UserByConnId(params.ConnId)
		if u == nil {
			return nil
		}

		u.CurrentGame = tab
		syncWheelTurn(st)

		resp = &SetActiveGameResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set active game: %w", mapRepoErr(err))
	}

	return resp, nil
}

type DisconnectParams struct {
	RoomId string
	ConnId string
}

type DisconnectResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

// Disconnect unbinds the connection but keeps the member, its score and
// any held drawing role, so a reconnect resumes the round. A host
// disconnect drops the provider session while keeping the host claim.
func (s service) Disconnect(ctx context.Context, params *DisconnectParams) (*DisconnectResponse, error) {
	if err := s.connRepo.RemoveByConnId(params.ConnId); err != nil {
		s.logger.DebugContext(ctx, "connection already unbound", "error", err)
	}

	var resp *DisconnectResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		u := st.UserByConnId(params.ConnId)
		if u == nil {
			return nil
		}

		u.ConnId = nil

		if st.Music.HostKey != nil && *st.Music.HostKey == u.Key {
			st.Music.Session = nil
			st.Music.HasSession = false
			st.Music.HostDeviceId = ""
			st.Music.ClientId = ""
		}

		syncWheelTurn(st)

		resp = &DisconnectResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to disconnect: %w", mapRepoErr(err))
	}

	s.logger.InfoContext(ctx, "user disconnected", "room_id", params.RoomId, "conn_id", params.ConnId)
	return resp, nil
}
