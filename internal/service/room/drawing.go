package room

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/repository/room"
)

// WordAssignment is a point-to-point word delivery to the drawer's live
// connection.
type WordAssignment struct {
	Conn *websocket.Conn
	Word string
}

// startRound assigns the drawer and guesser by join order among connected
// members and deals a fresh word. Returns false when fewer than two
// members are connected.
func (s service) startRound(st *room.State) bool {
	connected := st.ConnectedUsers()
	if len(connected) < roomCapacity {
		return false
	}

	drawer := connected[0].Key
	guesser := connected[1].Key
	word := s.words.Random()

	st.Game.DrawerKey = &drawer
	st.Game.GuesserKey = &guesser
	st.Game.Word = &word
	st.Game.Strokes = nil
	st.Game.WrongGuesses = 0

	return true
}

// ensureRound starts a round when none is active and the game has not
// already been won.
func (s service) ensureRound(st *room.State) bool {
	if st.Game.DrawerKey != nil || st.Game.WinnerKey != nil {
		return false
	}

	return s.startRound(st)
}

// rotateRoles swaps drawer and guesser and deals a fresh word for the
// next round.
func (s service) rotateRoles(st *room.State) {
	st.Game.DrawerKey, st.Game.GuesserKey = st.Game.GuesserKey, st.Game.DrawerKey

	word := s.words.Random()
	st.Game.Word = &word
	st.Game.Strokes = nil
	st.Game.WrongGuesses = 0
}

// clearRound drops all per-round state. Wheel fields are untouched.
func clearRound(st *room.State) {
	st.Game.DrawerKey = nil
	st.Game.GuesserKey = nil
	st.Game.Word = nil
	st.Game.Strokes = nil
	st.Game.WrongGuesses = 0
}

// drawerAssignment resolves the current word delivery target, nil when
// there is no active word or the drawer has no live connection.
func (s service) drawerAssignment(st *room.State) *WordAssignment {
	if st.Game.Word == nil || st.Game.DrawerKey == nil {
		return nil
	}

	drawer := st.UserByKey(*st.Game.DrawerKey)
	if drawer == nil || !drawer.Connected() {
		return nil
	}

	conn, err := s.connRepo.GetConn(*drawer.ConnId)
	if err != nil {
		return nil
	}

	return &WordAssignment{Conn: conn, Word: *st.Game.Word}
}

func requireDrawer(st *room.State, connId string) (*room.User, error) {
	u := st.UserByConnId(connId)
	if u == nil {
		return nil, ErrNotMember
	}
	if st.Game.Word == nil {
		return nil, ErrNoActiveRound
	}
	if st.Game.DrawerKey == nil || *st.Game.DrawerKey != u.Key {
		return nil, ErrNotDrawer
	}

	return u, nil
}

func requireGuesser(st *room.State, connId string) (*room.User, error) {
	u := st.UserByConnId(connId)
	if u == nil {
		return nil, ErrNotMember
	}
	if st.Game.Word == nil {
		return nil, ErrNoActiveRound
	}
	if st.Game.GuesserKey == nil || *st.Game.GuesserKey != u.Key {
		return nil, ErrNotGuesser
	}

	return u, nil
}

type SubmitStrokeParams struct {
	RoomId string
	ConnId string
	Stroke room.Stroke
}

type SubmitStrokeResponse struct {
	// Conns excludes the sender; the stroke is relayed, not echoed.
	Conns  []*websocket.Conn
	Stroke room.Stroke
}

// SubmitStroke appends a segment to the round's canvas log and relays it
// to everyone but the drawer.
func (s service) SubmitStroke(ctx context.Context, params *SubmitStrokeParams) (SubmitStrokeResponse, error) {
	var resp SubmitStrokeResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		if _, err := requireDrawer(st, params.ConnId); err != nil {
			return err
		}

		st.Game.Strokes = append(st.Game.Strokes, params.Stroke)

		connIds := make([]string, 0, len(st.Users))
		for _, id := range st.ConnIds() {
			if id != params.ConnId {
				connIds = append(connIds, id)
			}
		}

		resp = SubmitStrokeResponse{
			Conns:  s.connRepo.GetConns(connIds),
			Stroke: params.Stroke,
		}
		return nil
	})
	if err != nil {
		return SubmitStrokeResponse{}, fmt.Errorf("failed to submit stroke: %w", mapRepoErr(err))
	}

	return resp, nil
}

type ClearCanvasParams struct {
	RoomId string
	ConnId string
}

type ClearCanvasResponse struct {
	Conns []*websocket.Conn
}

// ClearCanvas wipes the stroke log on the drawer's request.
func (s service) ClearCanvas(ctx context.Context, params *ClearCanvasParams) (ClearCanvasResponse, error) {
	var resp ClearCanvasResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		if _, err := requireDrawer(st, params.ConnId); err != nil {
			return err
		}

		st.Game.Strokes = nil

		resp = ClearCanvasResponse{Conns: s.connRepo.GetConns(st.ConnIds())}
		return nil
	})
	if err != nil {
		return ClearCanvasResponse{}, fmt.Errorf("failed to clear canvas: %w", mapRepoErr(err))
	}

	return resp, nil
}

type GuessOutcome string

const (
	// GuessWrong: wrong guess below the cap, counter shown to the guesser only.
	GuessWrong GuessOutcome = "WRONG"
	// GuessSkipped: wrong-guess cap reached, round rotated without a score.
	GuessSkipped GuessOutcome = "SKIPPED"
	// GuessScored: correct guess, roles rotated for the next round.
	GuessScored GuessOutcome = "SCORED"
	// GuessWon: correct guess that reached the score cap, game over.
	GuessWon GuessOutcome = "WON"
)

type SubmitGuessParams struct {
	RoomId string
	ConnId string
	Guess  string
}

type SubmitGuessResponse struct {
	Outcome       GuessOutcome
	Word          string
	ScorerKey     string
	ScorerName    string
	Points        int
	ScoreCap      int
	WrongGuesses  int
	WrongGuessCap int
	// GuesserConn carries the private wrong-guess notice.
	GuesserConn *websocket.Conn
	Assignment  *WordAssignment
	Conns       []*websocket.Conn
	Snapshot    Snapshot
}

// SubmitGuess compares the guess against the active word, trimmed and
// case-insensitive. A correct guess scores a point and rotates roles, or
// ends the game at the score cap. Wrong guesses accumulate until the cap
// forces a no-score rotation.
func (s service) SubmitGuess(ctx context.Context, params *SubmitGuessParams) (SubmitGuessResponse, error) {
	var resp SubmitGuessResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		u, err := requireGuesser(st, params.ConnId)
		if err != nil {
			return err
		}

		word := *st.Game.Word
		guess := strings.TrimSpace(params.Guess)

		if !strings.EqualFold(guess, word) {
			st.Game.WrongGuesses++

			if st.Game.WrongGuesses < s.cfg.WrongGuessCap {
				conn, err := s.connRepo.GetConn(params.ConnId)
				if err != nil {
					return fmt.Errorf("failed to get guesser connection: %w", err)
				}

				resp = SubmitGuessResponse{
					Outcome:       GuessWrong,
					WrongGuesses:  st.Game.WrongGuesses,
					WrongGuessCap: s.cfg.WrongGuessCap,
					GuesserConn:   conn,
				}
				return nil
			}

			s.rotateRoles(st)

			resp = SubmitGuessResponse{
				Outcome:    GuessSkipped,
				Word:       word,
				Assignment: s.drawerAssignment(st),
				Conns:      s.connRepo.GetConns(st.ConnIds()),
				Snapshot:   s.snapshot(st),
			}
			return nil
		}

		u.Points++

		if u.Points >= s.cfg.ScoreCap {
			winner := u.Key
			clearRound(st)
			st.Game.WinnerKey = &winner

			resp = SubmitGuessResponse{
				Outcome:    GuessWon,
				Word:       word,
				ScorerKey:  u.Key,
				ScorerName: u.Name,
				Points:     u.Points,
				ScoreCap:   s.cfg.ScoreCap,
				Conns:      s.connRepo.GetConns(st.ConnIds()),
				Snapshot:   s.snapshot(st),
			}
			return nil
		}

		s.rotateRoles(st)

		resp = SubmitGuessResponse{
			Outcome:    GuessScored,
			Word:       word,
			ScorerKey:  u.Key,
			ScorerName: u.Name,
			Points:     u.Points,
			ScoreCap:   s.cfg.ScoreCap,
			Assignment: s.drawerAssignment(st),
			Conns:      s.connRepo.GetConns(st.ConnIds()),
			Snapshot:   s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return SubmitGuessResponse{}, fmt.Errorf("failed to submit guess: %w", mapRepoErr(err))
	}

	return resp, nil
}

type SkipRoundParams struct {
	RoomId string
	ConnId string
}

type SkipRoundResponse struct {
	Word       string
	Assignment *WordAssignment
	Conns      []*websocket.Conn
	Snapshot   Snapshot
}

// SkipRound lets the guesser give up: the word is revealed, roles rotate
// and nobody scores.
func (s service) SkipRound(ctx context.Context, params *SkipRoundParams) (SkipRoundResponse, error) {
	var resp SkipRoundResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		if _, err := requireGuesser(st, params.ConnId); err != nil {
			return err
		}

		word := *st.Game.Word
		s.rotateRoles(st)

		resp = SkipRoundResponse{
			Word:       word,
			Assignment: s.drawerAssignment(st),
			Conns:      s.connRepo.GetConns(st.ConnIds()),
			Snapshot:   s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return SkipRoundResponse{}, fmt.Errorf("failed to skip round: %w", mapRepoErr(err))
	}

	return resp, nil
}

type RestartGameParams struct {
	RoomId string
	ConnId string
}

type RestartGameResponse struct {
	Assignment *WordAssignment
	Conns      []*websocket.Conn
	Snapshot   Snapshot
}

// RestartGame zeroes all scores and starts over. Any member may restart.
// With fewer than two connected members the game waits in the idle state.
func (s service) RestartGame(ctx context.Context, params *RestartGameParams) (RestartGameResponse, error) {
	var resp RestartGameResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		u := st.UserByConnId(params.ConnId)
		if u == nil {
			return ErrNotMember
		}

		for _, member := range st.Users {
			member.Points = 0
		}
		clearRound(st)
		st.Game.WinnerKey = nil
		s.startRound(st)

		resp = RestartGameResponse{
			Assignment: s.drawerAssignment(st),
			Conns:      s.connRepo.GetConns(st.ConnIds()),
			Snapshot:   s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return RestartGameResponse{}, fmt.Errorf("failed to restart game: %w", mapRepoErr(err))
	}

	return resp, nil
}
