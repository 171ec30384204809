package inmemory

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/partyroom/server/internal/repository/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo() *repo {
	return NewRepo(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreate(t *testing.T) {
	r := newTestRepo()

	err := r.Create("room1", func() *room.State {
		return &room.State{Pin: "1234"}
	}, func(st *room.State) error {
		assert.Equal(t, "room1", st.Id)
		assert.Equal(t, "1234", st.Pin)
		assert.False(t, st.CreatedAt.IsZero())
		return nil
	})
	require.NoError(t, err)

	err = r.Create("room1", func() *room.State {
		return &room.State{}
	}, func(st *room.State) error {
		t.Fatal("fn must not run for a taken id")
		return nil
	})
	require.ErrorIs(t, err, room.ErrAlreadyExists)

	assert.Equal(t, []string{"room1"}, r.RoomIds())
}

func TestUpdate(t *testing.T) {
	r := newTestRepo()

	err := r.Update("missing", func(st *room.State) error { return nil })
	require.ErrorIs(t, err, room.ErrNotFound)

	require.NoError(t, r.Create("room1", func() *room.State {
		return &room.State{Pin: "1234"}
	}, func(st *room.State) error { return nil }))

	err = r.Update("room1", func(st *room.State) error {
		st.Users = append(st.Users, &room.User{Key: "alice-key"})
		return nil
	})
	require.NoError(t, err)

	err = r.Update("room1", func(st *room.State) error {
		require.Len(t, st.Users, 1)
		assert.Equal(t, "alice-key", st.Users[0].Key)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateOrCreate(t *testing.T) {
	r := newTestRepo()

	err := r.UpdateOrCreate("room1", func() *room.State {
		return &room.State{Pin: "1234"}
	}, func(st *room.State, created bool) error {
		assert.True(t, created)
		return nil
	})
	require.NoError(t, err)

	err = r.UpdateOrCreate("room1", func() *room.State {
		return &room.State{Pin: "other"}
	}, func(st *room.State, created bool) error {
		assert.False(t, created)
		assert.Equal(t, "1234", st.Pin, "existing room must be kept")
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateSerializesMutations(t *testing.T) {
	r := newTestRepo()

	require.NoError(t, r.Create("room1", func() *room.State {
		return &room.State{}
	}, func(st *room.State) error { return nil }))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Update("room1", func(st *room.State) error {
				st.Game.WrongGuesses++
				return nil
			})
		}()
	}
	wg.Wait()

	err := r.Update("room1", func(st *room.State) error {
		assert.Equal(t, 100, st.Game.WrongGuesses)
		return nil
	})
	require.NoError(t, err)
}
