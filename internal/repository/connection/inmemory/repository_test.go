package inmemory

import (
	"io"
	"log/slog"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/repository/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo() *repo {
	return NewRepo(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAddAndGet(t *testing.T) {
	r := newTestRepo()
	conn := &websocket.Conn{}

	require.NoError(t, r.Add(conn, "conn1"))

	got, err := r.GetConn("conn1")
	require.NoError(t, err)
	assert.Same(t, conn, got)

	connId, err := r.GetConnId(conn)
	require.NoError(t, err)
	assert.Equal(t, "conn1", connId)

	// double binding is rejected both ways
	require.ErrorIs(t, r.Add(conn, "conn2"), connection.ErrAlreadyExists)
	require.ErrorIs(t, r.Add(&websocket.Conn{}, "conn1"), connection.ErrAlreadyExists)
}

func TestRemoveByConnId(t *testing.T) {
	r := newTestRepo()
	conn := &websocket.Conn{}

	require.ErrorIs(t, r.RemoveByConnId("conn1"), connection.ErrNotFound)

	require.NoError(t, r.Add(conn, "conn1"))
	require.NoError(t, r.RemoveByConnId("conn1"))

	_, err := r.GetConn("conn1")
	require.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.GetConnId(conn)
	require.ErrorIs(t, err, connection.ErrNotFound)
}

func TestGetConnsSkipsUnbound(t *testing.T) {
	r := newTestRepo()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	require.NoError(t, r.Add(conn1, "conn1"))
	require.NoError(t, r.Add(conn2, "conn2"))

	conns := r.GetConns([]string{"conn1", "missing", "conn2"})
	assert.Equal(t, []*websocket.Conn{conn1, conn2}, conns)
}
