package inmemory

import (
	"log/slog"
	"sync"
	"time"

	"github.com/partyroom/server/internal/repository/room"
	"golang.org/x/exp/maps"
)

type entry struct {
	mu    sync.Mutex
	state *room.State
}

// repo is the process-local room registry. The registry map has its own
// lock; every room is additionally guarded by a per-room mutex so that
// all mutations of one room are serialized. Rooms are never evicted.
type repo struct {
	rooms  map[string]*entry
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]*entry),
		logger: logger,
	}
}

func (r *repo) get(roomId string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.rooms[roomId]
	return e, ok
}

func (r *repo) getOrCreate(roomId string, init func() *room.State) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.rooms[roomId]; ok {
		return e, false
	}

	state := init()
	state.Id = roomId
	state.CreatedAt = time.Now()
	e := &entry{state: state}
	r.rooms[roomId] = e

	return e, true
}

// Create registers a new room and runs fn inside its critical section.
// It fails with room.ErrAlreadyExists when the id is taken.
func (r *repo) Create(roomId string, init func() *room.State, fn func(*room.State) error) error {
	funcName := "room.inmemory.Create"
	e, created := r.getOrCreate(roomId, init)
	if !created {
		r.logger.Debug(funcName, "roomId", roomId, "error", room.ErrAlreadyExists)
		return room.ErrAlreadyExists
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(e.state)
}

// Update runs fn inside the room's critical section. Mutations of one
// room never interleave; fn must not block on external calls.
func (r *repo) Update(roomId string, fn func(*room.State) error) error {
	funcName := "room.inmemory.Update"
	e, ok := r.get(roomId)
	if !ok {
		r.logger.Debug(funcName, "roomId", roomId, "error", room.ErrNotFound)
		return room.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(e.state)
}

// UpdateOrCreate is Update with get-or-create semantics, used by the
// implicit room creation on join.
func (r *repo) UpdateOrCreate(roomId string, init func() *room.State, fn func(*room.State, bool) error) error {
	e, created := r.getOrCreate(roomId, init)

	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(e.state, created)
}

func (r *repo) RoomIds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Keys(r.rooms)
}
