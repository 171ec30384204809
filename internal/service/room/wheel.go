package room

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/repository/room"
)

type SetWheelOptionsParams struct {
	RoomId  string
	ConnId  string
	Options []string
}

type SetWheelOptionsResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

// SetWheelOptions replaces the wheel's option list. Entries are trimmed,
// length-bounded and deduplicated case-insensitively keeping first-seen
// order. A list that normalizes to nothing is ignored.
func (s service) SetWheelOptions(ctx context.Context, params *SetWheelOptionsParams) (*SetWheelOptionsResponse, error) {
	options := make([]string, 0, len(params.Options))
	seen := make(map[string]struct{}, len(params.Options))
	for _, raw := range params.Options {
		option := truncateRunes(strings.TrimSpace(raw), s.cfg.WheelOptionLength)
		if option == "" {
			continue
		}

		lower := strings.ToLower(option)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}

		options = append(options, option)
		if len(options) == s.cfg.WheelOptionsLimit {
			break
		}
	}

	if len(options) == 0 {
		return nil, nil
	}

	var resp *SetWheelOptionsResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		u := st.UserByConnId(params.ConnId)
		if u == nil {
			return ErrNotMember
		}

		st.Game.WheelOptions = options
		syncWheelTurn(st)

		resp = &SetWheelOptionsResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set wheel options: %w", mapRepoErr(err))
	}

	return resp, nil
}

type SpinWheelParams struct {
	RoomId string
	ConnId string
}

type SpinWheelResponse struct {
	Option     string
	Index      int
	SpinnerKey string
	Conns      []*websocket.Conn
	Snapshot   Snapshot
}

// SpinWheel picks a uniform random option for the turn holder, then hands
// the turn to the next eligible member. A lone eligible member keeps the
// turn. Spinning an empty wheel is ignored.
func (s service) SpinWheel(ctx context.Context, params *SpinWheelParams) (*SpinWheelResponse, error) {
	var resp *SpinWheelResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		u := st.UserByConnId(params.ConnId)
		if u == nil {
			return ErrNotMember
		}

		syncWheelTurn(st)
		if st.Game.WheelTurnKey == nil || *st.Game.WheelTurnKey != u.Key {
			return ErrNotWheelTurn
		}

		if len(st.Game.WheelOptions) == 0 {
			return nil
		}

		index := rand.Intn(len(st.Game.WheelOptions))

		for _, next := range wheelEligible(st) {
			if next.Key != u.Key {
				key := next.Key
				st.Game.WheelTurnKey = &key
				break
			}
		}

		resp = &SpinWheelResponse{
			Option:     st.Game.WheelOptions[index],
			Index:      index,
			SpinnerKey: u.Key,
			Conns:      s.connRepo.GetConns(st.ConnIds()),
			Snapshot:   s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to spin wheel: %w", mapRepoErr(err))
	}

	return resp, nil
}
