package room

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/repository/room"
)

type AddNoteParams struct {
	RoomId string
	ConnId string
	Text   string
}

type AddNoteResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

// AddNote pins a note to the lobby board, tagged with the author's
// identity and color. Blank notes are ignored and the board evicts its
// oldest note past the limit.
func (s service) AddNote(ctx context.Context, params *AddNoteParams) (*AddNoteResponse, error) {
	text := truncateRunes(strings.TrimSpace(params.Text), s.cfg.NoteLength)
	if text == "" {
		return nil, nil
	}

	var resp *AddNoteResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		u := st.UserByConnId(params.ConnId)
		if u == nil {
			return ErrNotMember
		}

		st.Notes = append(st.Notes, room.Note{
			Id:        uuid.NewString(),
			UserKey:   u.Key,
			Name:      u.Name,
			Color:     u.Color,
			Text:      text,
			CreatedAt: time.Now(),
		})
		if len(st.Notes) > s.cfg.NotesLimit {
			st.Notes = st.Notes[len(st.Notes)-s.cfg.NotesLimit:]
		}

		resp = &AddNoteResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add note: %w", mapRepoErr(err))
	}

	return resp, nil
}

type DeleteNoteParams struct {
	RoomId string
	ConnId string
	NoteId string
}

type DeleteNoteResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

// DeleteNote removes a note, but only for its author. Anything else is
// ignored.
func (s service) DeleteNote(ctx context.Context, params *DeleteNoteParams) (*DeleteNoteResponse, error) {
	var resp *DeleteNoteResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		u := st.UserByConnId(params.ConnId)
		if u == nil {
			return ErrNotMember
		}

		for i, note := range st.Notes {
			if note.Id != params.NoteId || note.UserKey != u.Key {
				continue
			}

			st.Notes = append(st.Notes[:i], st.Notes[i+1:]...)
			resp = &DeleteNoteResponse{
				Conns:    s.connRepo.GetConns(st.ConnIds()),
				Snapshot: s.snapshot(st),
			}
			return nil
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete note: %w", mapRepoErr(err))
	}

	return resp, nil
}
