package room

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/partyroom/server/internal/repository/room"
	"github.com/partyroom/server/internal/spotify"
)

const (
	trackUriPrefix   = "spotify:track:"
	trackFieldLength = 200
)

func requireHost(st *room.State, connId string) (*room.User, error) {
	u := st.UserByConnId(connId)
	if u == nil {
		return nil, ErrNotMember
	}
	if st.Music.HostKey == nil || *st.Music.HostKey != u.Key {
		return nil, ErrNotHost
	}

	return u, nil
}

// clearHostSession drops everything tied to the host's provider session
// while leaving the host claim itself alone.
func clearHostSession(st *room.State) {
	st.Music.Session = nil
	st.Music.HasSession = false
	st.Music.HostDeviceId = ""
	st.Music.ClientId = ""
}

type ClaimHostParams struct {
	RoomId string
	ConnId string
}

type ClaimHostResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

// ClaimHost grants the music host role. The claim succeeds when nobody
// holds it or the current holder is disconnected; a fresh grant always
// starts without a provider session.
func (s service) ClaimHost(ctx context.Context, params *ClaimHostParams) (ClaimHostResponse, error) {
	var resp ClaimHostResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		u := st.UserByConnId(params.ConnId)
		if u == nil {
			return ErrNotMember
		}

		if st.Music.HostKey != nil && *st.Music.HostKey != u.Key {
			holder := st.UserByKey(*st.Music.HostKey)
			if holder != nil && holder.Connected() {
				return fmt.Errorf("%w by %s", ErrHostTaken, st.Music.HostName)
			}
		}

		key := u.Key
		st.Music.HostKey = &key
		st.Music.HostName = u.Name
		clearHostSession(st)

		resp = ClaimHostResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return ClaimHostResponse{}, fmt.Errorf("failed to claim host: %w", mapRepoErr(err))
	}

	return resp, nil
}

type ReleaseHostParams struct {
	RoomId string
	ConnId string
}

type ReleaseHostResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

func (s service) ReleaseHost(ctx context.Context, params *ReleaseHostParams) (ReleaseHostResponse, error) {
	var resp ReleaseHostResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		if _, err := requireHost(st, params.ConnId); err != nil {
			return err
		}

		st.Music.HostKey = nil
		st.Music.HostName = ""
		clearHostSession(st)

		resp = ReleaseHostResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return ReleaseHostResponse{}, fmt.Errorf("failed to release host: %w", mapRepoErr(err))
	}

	return resp, nil
}

type UpdateHostSessionParams struct {
	RoomId       string
	ConnId       string
	ClientId     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type UpdateHostSessionResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

// UpdateHostSession stores the host's provider token bundle. An empty
// access token means the host disconnected from the provider.
func (s service) UpdateHostSession(ctx context.Context, params *UpdateHostSessionParams) (UpdateHostSessionResponse, error) {
	var resp UpdateHostSessionResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		if _, err := requireHost(st, params.ConnId); err != nil {
			return err
		}

		if params.AccessToken == "" {
			clearHostSession(st)
		} else {
			st.Music.Session = &room.HostSession{
				AccessToken:  params.AccessToken,
				RefreshToken: params.RefreshToken,
				ExpiresAt:    params.ExpiresAt,
			}
			st.Music.HasSession = true
			st.Music.ClientId = params.ClientId
		}

		resp = UpdateHostSessionResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return UpdateHostSessionResponse{}, fmt.Errorf("failed to update host session: %w", mapRepoErr(err))
	}

	return resp, nil
}

type UpdateHostDeviceParams struct {
	RoomId   string
	ConnId   string
	DeviceId string
}

type UpdateHostDeviceResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

func (s service) UpdateHostDevice(ctx context.Context, params *UpdateHostDeviceParams) (UpdateHostDeviceResponse, error) {
	var resp UpdateHostDeviceResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		if _, err := requireHost(st, params.ConnId); err != nil {
			return err
		}

		st.Music.HostDeviceId = strings.TrimSpace(params.DeviceId)

		resp = UpdateHostDeviceResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return UpdateHostDeviceResponse{}, fmt.Errorf("failed to update host device: %w", mapRepoErr(err))
	}

	return resp, nil
}

type TrackInput struct {
	Uri     string `json:"uri"`
	Name    string `json:"name"`
	Artists string `json:"artists"`
	Image   string `json:"image"`
}

// normalizeTrack bounds the candidate's fields and checks it points at a
// concrete provider track.
func normalizeTrack(in TrackInput) (TrackInput, bool) {
	uri := strings.TrimSpace(in.Uri)
	name := truncateRunes(strings.TrimSpace(in.Name), trackFieldLength)
	if name == "" || !strings.HasPrefix(uri, trackUriPrefix) || len(uri) == len(trackUriPrefix) {
		return TrackInput{}, false
	}

	return TrackInput{
		Uri:     uri,
		Name:    name,
		Artists: truncateRunes(strings.TrimSpace(in.Artists), trackFieldLength),
		Image:   strings.TrimSpace(in.Image),
	}, true
}

// pushBounded appends keeping at most limit entries, evicting the oldest.
func pushBounded(list []room.TrackEntry, entry room.TrackEntry, limit int) []room.TrackEntry {
	list = append(list, entry)
	if len(list) > limit {
		list = list[len(list)-limit:]
	}

	return list
}

type SuggestTrackParams struct {
	RoomId string
	ConnId string
	Track  TrackInput
}

type SuggestTrackResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

// SuggestTrack adds a candidate to the suggestion list, tagged with the
// submitter. Malformed candidates are ignored.
func (s service) SuggestTrack(ctx context.Context, params *SuggestTrackParams) (*SuggestTrackResponse, error) {
	track, ok := normalizeTrack(params.Track)
	if !ok {
		return nil, nil
	}

	var resp *SuggestTrackResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		u := st.UserByConnId(params.ConnId)
		if u == nil {
			return ErrNotMember
		}

		st.Music.Suggestions = pushBounded(st.Music.Suggestions, room.TrackEntry{
			Id:          uuid.NewString(),
			Uri:         track.Uri,
			Name:        track.Name,
			Artists:     track.Artists,
			Image:       track.Image,
			AddedByKey:  u.Key,
			AddedByName: u.Name,
			AddedAt:     time.Now(),
		}, s.cfg.SuggestionsLimit)

		resp = &SuggestTrackResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to suggest track: %w", mapRepoErr(err))
	}

	return resp, nil
}

type SuggestionDecisionParams struct {
	RoomId       string
	ConnId       string
	SuggestionId string
}

type SuggestionDecisionResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

func removeSuggestion(st *room.State, id string) (room.TrackEntry, bool) {
	for i, entry := range st.Music.Suggestions {
		if entry.Id == id {
			st.Music.Suggestions = append(st.Music.Suggestions[:i], st.Music.Suggestions[i+1:]...)
			return entry, true
		}
	}

	return room.TrackEntry{}, false
}

// AcceptSuggestion moves a suggestion into the queue, re-tagged with the
// host's identity. Unknown ids are ignored.
func (s service) AcceptSuggestion(ctx context.Context, params *SuggestionDecisionParams) (*SuggestionDecisionResponse, error) {
	var resp *SuggestionDecisionResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		host, err := requireHost(st, params.ConnId)
		if err != nil {
			return err
		}

		entry, ok := removeSuggestion(st, params.SuggestionId)
		if !ok {
			return nil
		}

		entry.AddedByKey = host.Key
		entry.AddedByName = host.Name
		entry.AddedAt = time.Now()
		st.Music.Queue = pushBounded(st.Music.Queue, entry, s.cfg.QueueLimit)

		resp = &SuggestionDecisionResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to accept suggestion: %w", mapRepoErr(err))
	}

	return resp, nil
}

func (s service) RejectSuggestion(ctx context.Context, params *SuggestionDecisionParams) (*SuggestionDecisionResponse, error) {
	var resp *SuggestionDecisionResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		if _, err := requireHost(st, params.ConnId); err != nil {
			return err
		}

		if _, ok := removeSuggestion(st, params.SuggestionId); !ok {
			return nil
		}

		resp = &SuggestionDecisionResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reject suggestion: %w", mapRepoErr(err))
	}

	return resp, nil
}

type AddToQueueParams struct {
	RoomId string
	ConnId string
	Track  TrackInput
}

type AddToQueueResponse struct {
	Conns    []*websocket.Conn
	Snapshot Snapshot
}

// AddToQueue lets the host queue a track directly, bypassing the
// suggestion list.
func (s service) AddToQueue(ctx context.Context, params *AddToQueueParams) (*AddToQueueResponse, error) {
	track, ok := normalizeTrack(params.Track)
	if !ok {
		return nil, nil
	}

	var resp *AddToQueueResponse
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		host, err := requireHost(st, params.ConnId)
		if err != nil {
			return err
		}

		st.Music.Queue = pushBounded(st.Music.Queue, room.TrackEntry{
			Id:          uuid.NewString(),
			Uri:         track.Uri,
			Name:        track.Name,
			Artists:     track.Artists,
			Image:       track.Image,
			AddedByKey:  host.Key,
			AddedByName: host.Name,
			AddedAt:     time.Now(),
		}, s.cfg.QueueLimit)

		resp = &AddToQueueResponse{
			Conns:    s.connRepo.GetConns(st.ConnIds()),
			Snapshot: s.snapshot(st),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add to queue: %w", mapRepoErr(err))
	}

	return resp, nil
}

type ControlAction string

const (
	ControlCurrentTrack   ControlAction = "CURRENT_TRACK"
	ControlSearch         ControlAction = "SEARCH"
	ControlPlay           ControlAction = "PLAY"
	ControlPause          ControlAction = "PAUSE"
	ControlNext           ControlAction = "NEXT"
	ControlPrevious       ControlAction = "PREVIOUS"
	ControlPlayTrack      ControlAction = "PLAY_TRACK"
	ControlPlayQueuedNext ControlAction = "PLAY_QUEUED_NEXT"
)

func (a ControlAction) Valid() bool {
	switch a {
	case ControlCurrentTrack, ControlSearch, ControlPlay, ControlPause,
		ControlNext, ControlPrevious, ControlPlayTrack, ControlPlayQueuedNext:
		return true
	}

	return false
}

// needsDevice reports whether the action drives playback on the host's
// device rather than just reading provider state.
func (a ControlAction) needsDevice() bool {
	switch a {
	case ControlPlay, ControlPause, ControlNext, ControlPrevious,
		ControlPlayTrack, ControlPlayQueuedNext:
		return true
	}

	return false
}

type MusicControlParams struct {
	RoomId   string
	ConnId   string
	Action   ControlAction
	Query    string
	TrackUri string
}

type MusicControlResponse struct {
	Action   ControlAction
	Playback *spotify.PlaybackInfo
	Tracks   []spotify.Track
	// Conns and Snapshot are set only when the queue changed.
	Conns    []*websocket.Conn
	Snapshot *Snapshot
}

// MusicControl runs one provider action on behalf of the requester using
// the host's session. The provider call happens outside the room's
// critical section; its result re-enters it and is discarded when the
// host changed meanwhile. Refreshed tokens are stored even when the call
// itself failed. PLAY_QUEUED_NEXT is host-only and the only action that
// mutates room state: it dequeues the head entry once the play succeeds.
func (s service) MusicControl(ctx context.Context, params *MusicControlParams) (MusicControlResponse, error) {
	if !params.Action.Valid() {
		return MusicControlResponse{}, ErrUnknownControlAction
	}

	var (
		creds    spotify.Credentials
		deviceId string
		hostKey  string
		queued   room.TrackEntry
	)
	err := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
		u := st.UserByConnId(params.ConnId)
		if u == nil {
			return ErrNotMember
		}
		if st.Music.HostKey == nil || !st.Music.HasSession || st.Music.Session == nil {
			return ErrHostNotReady
		}
		if params.Action.needsDevice() && st.Music.HostDeviceId == "" {
			return ErrHostNotReady
		}
		if params.Action == ControlPlayQueuedNext {
			if *st.Music.HostKey != u.Key {
				return ErrNotHost
			}
			if len(st.Music.Queue) == 0 {
				return ErrQueueEmpty
			}
			queued = st.Music.Queue[0]
		}

		hostKey = *st.Music.HostKey
		deviceId = st.Music.HostDeviceId
		creds = spotify.Credentials{
			ClientId:     st.Music.ClientId,
			AccessToken:  st.Music.Session.AccessToken,
			RefreshToken: st.Music.Session.RefreshToken,
			Expiry:       st.Music.Session.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return MusicControlResponse{}, mapRepoErr(err)
	}

	resp := MusicControlResponse{Action: params.Action}

	var (
		refreshed *spotify.Credentials
		callErr   error
	)
	switch params.Action {
	case ControlCurrentTrack:
		resp.Playback, refreshed, callErr = s.provider.CurrentTrack(ctx, creds)
	case ControlSearch:
		resp.Tracks, refreshed, callErr = s.provider.Search(ctx, creds, strings.TrimSpace(params.Query))
	case ControlPlay:
		refreshed, callErr = s.provider.Play(ctx, creds, deviceId)
	case ControlPause:
		refreshed, callErr = s.provider.Pause(ctx, creds, deviceId)
	case ControlNext:
		refreshed, callErr = s.provider.Next(ctx, creds, deviceId)
	case ControlPrevious:
		refreshed, callErr = s.provider.Previous(ctx, creds, deviceId)
	case ControlPlayTrack:
		refreshed, callErr = s.provider.PlayTrack(ctx, creds, deviceId, strings.TrimSpace(params.TrackUri))
	case ControlPlayQueuedNext:
		refreshed, callErr = s.provider.PlayTrack(ctx, creds, deviceId, queued.Uri)
	}

	dequeue := params.Action == ControlPlayQueuedNext && callErr == nil
	if refreshed != nil || dequeue {
		uerr := s.roomRepo.Update(params.RoomId, func(st *room.State) error {
			if st.Music.HostKey == nil || *st.Music.HostKey != hostKey || st.Music.Session == nil {
				return nil
			}

			if refreshed != nil {
				st.Music.Session.AccessToken = refreshed.AccessToken
				st.Music.Session.RefreshToken = refreshed.RefreshToken
				st.Music.Session.ExpiresAt = refreshed.Expiry
			}

			if dequeue && len(st.Music.Queue) > 0 && st.Music.Queue[0].Id == queued.Id {
				st.Music.Queue = st.Music.Queue[1:]

				snap := s.snapshot(st)
				resp.Snapshot = &snap
				resp.Conns = s.connRepo.GetConns(st.ConnIds())
			}
			return nil
		})
		if uerr != nil {
			s.logger.WarnContext(ctx, "failed to store provider call result", "error", uerr)
		}
	}

	if callErr != nil {
		s.logger.WarnContext(ctx, "provider call failed", "action", params.Action, "error", callErr)
		return MusicControlResponse{}, fmt.Errorf("provider call failed: %w", callErr)
	}

	return resp, nil
}
