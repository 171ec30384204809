package room

import (
	"time"

	"github.com/partyroom/server/internal/repository/room"
	"github.com/samber/lo"
)

// Stroke is re-exported so transport code does not reach into the
// repository package.
type Stroke = room.Stroke

type Status string

const (
	StatusDrawing      Status = "drawing"
	StatusGuessing     Status = "guessing"
	StatusWaiting      Status = "waiting"
	StatusDisconnected Status = "disconnected"
)

type User struct {
	Key         string `json:"user_key"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Points      int    `json:"points"`
	Status      Status `json:"status"`
	CurrentGame string `json:"current_game"`
	Connected   bool   `json:"connected"`
}

// Game is the drawing and wheel portion of the snapshot. The secret word
// never appears here; it travels point-to-point to the drawer only.
type Game struct {
	DrawerKey       *string  `json:"drawer_user_key"`
	GuesserKey      *string  `json:"guesser_user_key"`
	HasWord         bool     `json:"has_word"`
	WrongGuesses    int      `json:"wrong_guesses"`
	MaxWrongGuesses int      `json:"max_wrong_guesses"`
	ScoreCap        int      `json:"score_cap"`
	WinnerKey       *string  `json:"winner_user_key"`
	WheelTurnKey    *string  `json:"wheel_turn_user_key"`
	WheelOptions    []string `json:"wheel_options"`
}

type Track struct {
	Id          string    `json:"id"`
	Uri         string    `json:"uri"`
	Name        string    `json:"name"`
	Artists     string    `json:"artists"`
	Image       string    `json:"image"`
	AddedByKey  string    `json:"added_by_key"`
	AddedByName string    `json:"added_by_name"`
	AddedAt     time.Time `json:"added_at"`
}

// Music is the snapshot view of the music panel. The host token bundle
// is deliberately absent.
type Music struct {
	HostKey      *string `json:"host_user_key"`
	HostName     string  `json:"host_name"`
	HostDeviceId string  `json:"host_device_id"`
	HasSession   bool    `json:"has_host_session"`
	ClientId     string  `json:"client_id"`
	Suggestions  []Track `json:"suggestions"`
	Queue        []Track `json:"queue"`
}

type Note struct {
	Id        string    `json:"id"`
	UserKey   string    `json:"user_key"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is the full room state broadcast to every member after a
// state-changing event.
type Snapshot struct {
	RoomId string `json:"room_id"`
	Users  []User `json:"users"`
	Game   Game   `json:"game"`
	Music  Music  `json:"music"`
	Notes  []Note `json:"lobby_notes"`
}

func trackDTO(e room.TrackEntry) Track {
	return Track{
		Id:          e.Id,
		Uri:         e.Uri,
		Name:        e.Name,
		Artists:     e.Artists,
		Image:       e.Image,
		AddedByKey:  e.AddedByKey,
		AddedByName: e.AddedByName,
		AddedAt:     e.AddedAt,
	}
}

func (s service) snapshot(st *room.State) Snapshot {
	return Snapshot{
		RoomId: st.Id,
		Users: lo.Map(st.Users, func(u *room.User, _ int) User {
			return User{
				Key:         u.Key,
				Name:        u.Name,
				Color:       u.Color,
				Points:      u.Points,
				Status:      statusOf(st, u),
				CurrentGame: string(u.CurrentGame),
				Connected:   u.Connected(),
			}
		}),
		Game: Game{
			DrawerKey:       st.Game.DrawerKey,
			GuesserKey:      st.Game.GuesserKey,
			HasWord:         st.Game.Word != nil,
			WrongGuesses:    st.Game.WrongGuesses,
			MaxWrongGuesses: s.cfg.WrongGuessCap,
			ScoreCap:        s.cfg.ScoreCap,
			WinnerKey:       st.Game.WinnerKey,
			WheelTurnKey:    st.Game.WheelTurnKey,
			WheelOptions:    st.Game.WheelOptions,
		},
		Music: Music{
			HostKey:      st.Music.HostKey,
			HostName:     st.Music.HostName,
			HostDeviceId: st.Music.HostDeviceId,
			HasSession:   st.Music.HasSession,
			ClientId:     st.Music.ClientId,
			Suggestions:  lo.Map(st.Music.Suggestions, func(e room.TrackEntry, _ int) Track { return trackDTO(e) }),
			Queue:        lo.Map(st.Music.Queue, func(e room.TrackEntry, _ int) Track { return trackDTO(e) }),
		},
		Notes: lo.Map(st.Notes, func(n room.Note, _ int) Note {
			return Note{
				Id:        n.Id,
				UserKey:   n.UserKey,
				Name:      n.Name,
				Color:     n.Color,
				Text:      n.Text,
				CreatedAt: n.CreatedAt,
			}
		}),
	}
}
