package inmemory

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/repository/connection"
)

// repo binds transient connection ids to live websocket connections.
// Connection lifecycle (closing) is owned by the controller.
type repo struct {
	connList map[*websocket.Conn]string
	idList   map[string]*websocket.Conn
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[*websocket.Conn]string),
		idList:   make(map[string]*websocket.Conn),
		logger:   logger,
	}
}

func (r *repo) Add(conn *websocket.Conn, connId string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connList[conn] != "" || r.idList[connId] != nil {
		r.logger.Info(funcName, "connId", connId, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = connId
	r.idList[connId] = conn

	r.logger.Debug(funcName, "connId", connId)
	return nil
}

func (r *repo) RemoveByConnId(connId string) error {
	funcName := "connection.inmemory.RemoveByConnId"
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.idList[connId]
	if !ok {
		r.logger.Info(funcName, "connId", connId, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, connId)

	r.logger.Debug(funcName, "connId", connId)
	return nil
}

func (r *repo) GetConn(connId string) (*websocket.Conn, error) {
	funcName := "connection.inmemory.GetConn"
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[connId]
	if !ok {
		r.logger.Info(funcName, "connId", connId, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

// GetConns resolves connection ids to live connections, skipping ids
// that are no longer bound.
func (r *repo) GetConns(connIds []string) []*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*websocket.Conn, 0, len(connIds))
	for _, id := range connIds {
		if conn, ok := r.idList[id]; ok {
			conns = append(conns, conn)
		}
	}

	return conns
}

func (r *repo) GetConnId(conn *websocket.Conn) (string, error) {
	funcName := "connection.inmemory.GetConnId"
	r.mu.RLock()
	defer r.mu.RUnlock()

	connId, ok := r.connList[conn]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return "", connection.ErrNotFound
	}

	return connId, nil
}
