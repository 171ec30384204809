package wsrouter

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

// ErrorHandlerFunc is called when a handler returns a non-nil error.
type ErrorHandlerFunc func(ctx context.Context, conn *websocket.Conn, messageType string, err error)

type WSRouter struct {
	routes  map[string]HandlerFunc
	onError ErrorHandlerFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

func (r *WSRouter) HandleError(handler ErrorHandlerFunc) {
	r.onError = handler
}

// ServeConn reads messages from the connection until the read fails and
// routes each one to the handler registered for its type. Unknown types
// are reported back to the sender without closing the connection.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			conn.WriteJSON(map[string]string{"error": "Unknown message type"})
			continue
		}

		if err := handler(ctx, conn, msg.Payload); err != nil && r.onError != nil {
			r.onError(ctx, conn, msg.Type, err)
		}
	}
}
