package room

import "github.com/partyroom/server/internal/repository/room"

// statusOf derives the displayed status label for a member from role
// assignment and live-connection presence. Disconnected wins over any
// held role.
func statusOf(st *room.State, u *room.User) Status {
	if !u.Connected() {
		return StatusDisconnected
	}
	if st.Game.DrawerKey != nil && *st.Game.DrawerKey == u.Key {
		return StatusDrawing
	}
	if st.Game.GuesserKey != nil && *st.Game.GuesserKey == u.Key {
		return StatusGuessing
	}

	return StatusWaiting
}

// wheelEligible returns members who may hold the wheel turn: connected
// and currently viewing the wheel tab, in join order.
func wheelEligible(st *room.State) []*room.User {
	eligible := make([]*room.User, 0, len(st.Users))
	for _, u := range st.Users {
		if u.Connected() && u.CurrentGame == room.GameTabWheel {
			eligible = append(eligible, u)
		}
	}

	return eligible
}

// syncWheelTurn restores the turn invariant: the holder must be eligible.
// When it is not, the turn moves to the first eligible member in join
// order, or clears when nobody is eligible. Run after every mutation
// that can invalidate the cached turn pointer.
func syncWheelTurn(st *room.State) {
	eligible := wheelEligible(st)

	if st.Game.WheelTurnKey != nil {
		for _, u := range eligible {
			if u.Key == *st.Game.WheelTurnKey {
				return
			}
		}
	}

	if len(eligible) == 0 {
		st.Game.WheelTurnKey = nil
		return
	}

	key := eligible[0].Key
	st.Game.WheelTurnKey = &key
}
