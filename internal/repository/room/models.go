package room

import "time"

type GameTab string

const (
	GameTabDrawing GameTab = "DRAWING"
	GameTabWheel   GameTab = "WHEEL"
	GameTabMusic   GameTab = "MUSIC"
	GameTabLobby   GameTab = "LOBBY"
)

func (t GameTab) Valid() bool {
	switch t {
	case GameTabDrawing, GameTabWheel, GameTabMusic, GameTabLobby:
		return true
	}

	return false
}

// User is a room member keyed by a stable client-generated key. ConnId is
// the transient live-connection pointer and is nil while disconnected.
type User struct {
	Key         string
	Name        string
	Color       string
	Points      int
	CurrentGame GameTab
	ConnId      *string
}

func (u *User) Connected() bool {
	return u.ConnId != nil
}

// Stroke is a single drawn segment. The server only stores and relays it.
type Stroke struct {
	FromX float64 `json:"from_x"`
	FromY float64 `json:"from_y"`
	ToX   float64 `json:"to_x"`
	ToY   float64 `json:"to_y"`
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

type Drawing struct {
	DrawerKey    *string
	GuesserKey   *string
	Word         *string
	Strokes      []Stroke
	WrongGuesses int
	WinnerKey    *string
	WheelTurnKey *string
	WheelOptions []string
}

type HostSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type TrackEntry struct {
	Id          string
	Uri         string
	Name        string
	Artists     string
	Image       string
	AddedByKey  string
	AddedByName string
	AddedAt     time.Time
}

type Music struct {
	HostKey      *string
	HostName     string
	HostDeviceId string
	HasSession   bool
	Session      *HostSession
	ClientId     string
	Suggestions  []TrackEntry
	Queue        []TrackEntry
}

type Note struct {
	Id        string
	UserKey   string
	Name      string
	Color     string
	Text      string
	CreatedAt time.Time
}

// State is the full authoritative state of one room. It is only ever
// read or mutated inside the registry's per-room critical section.
type State struct {
	Id        string
	Pin       string
	Users     []*User
	Game      Drawing
	Music     Music
	Notes     []Note
	CreatedAt time.Time
}

func (s *State) UserByKey(key string) *User {
	for _, u := range s.Users {
		if u.Key == key {
			return u
		}
	}

	return nil
}

func (s *State) UserByConnId(connId string) *User {
	for _, u := range s.Users {
		if u.ConnId != nil && *u.ConnId == connId {
			return u
		}
	}

	return nil
}

// ConnectedUsers returns connected members in join order.
func (s *State) ConnectedUsers() []*User {
	connected := make([]*User, 0, len(s.Users))
	for _, u := range s.Users {
		if u.Connected() {
			connected = append(connected, u)
		}
	}

	return connected
}

// ConnIds returns the live connection ids of all connected members.
func (s *State) ConnIds() []string {
	ids := make([]string, 0, len(s.Users))
	for _, u := range s.Users {
		if u.ConnId != nil {
			ids = append(ids, *u.ConnId)
		}
	}

	return ids
}
