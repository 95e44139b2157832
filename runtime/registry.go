package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"sync"
)

type memberSet map[string]struct{}

// Registry is the sole source of truth for room membership. It maps live
// sessions to their single current room and resolves rooms to the sinks of
// their members. All mutation goes through the coordinator; a room entry
// exists if and only if it has at least one member.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	roomMembers map[domain.RoomID]memberSet
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		roomMembers: make(map[domain.RoomID]memberSet),
	}
}

// Connect registers a freshly accepted session. The session has no room
// until its first join event.
func (r *Registry) Connect(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Move sets the session's display name and places it in room, leaving its
// previous room first if it had one. Re-joining the current room is a
// no-op membership-wise but still refreshes the name. It returns the room
// that was left (with its remaining roster) and the new room's roster.
func (r *Registry) Move(sessionID string, room domain.RoomID, name string) (oldRoom domain.RoomID, oldRoster, newRoster []string, left bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", nil, nil, false
	}

	if s.Room != "" {
		oldRoom = s.Room
		left = true
		r.removeLocked(oldRoom, sessionID)
		oldRoster = r.rosterLocked(oldRoom)
	}

	s.Name = name
	s.Room = room
	members, ok := r.roomMembers[room]
	if !ok {
		members = make(memberSet)
		r.roomMembers[room] = members
	}
	members[sessionID] = struct{}{}

	return oldRoom, oldRoster, r.rosterLocked(room), left
}

// Disconnect drops the session entirely. If it was in a room, the room it
// left and the remaining roster are returned for broadcast.
func (r *Registry) Disconnect(sessionID string) (domain.RoomID, []string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", nil, false
	}
	delete(r.sessions, sessionID)

	if s.Room == "" {
		return "", nil, false
	}
	r.removeLocked(s.Room, sessionID)
	return s.Room, r.rosterLocked(s.Room), true
}

// CurrentRoom reports the room the session is joined to, if any.
func (r *Registry) CurrentRoom(sessionID string) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.Room == "" {
		return "", false
	}
	return s.Room, true
}

// Members returns the display names currently joined to a room. The list
// is unordered and duplicates are kept when two sessions share a name.
func (r *Registry) Members(room domain.RoomID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rosterLocked(room)
}

// SinksForRoom resolves the room's members to their transports.
func (r *Registry) SinksForRoom(room domain.RoomID) []contract.EventSink {
	return r.SinksForRoomExcept(room, "")
}

// SinksForRoomExcept resolves the room's members to their transports,
// skipping the named session. An unknown room yields nil, never an error.
func (r *Registry) SinksForRoomExcept(room domain.RoomID, exceptSessionID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for sessionID := range members {
		if sessionID == exceptSessionID {
			continue
		}
		if s, exists := r.sessions[sessionID]; exists {
			sinks = append(sinks, s.sink)
		}
	}
	return sinks
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roomMembers)
}

func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// removeLocked drops the session from the room's member set and deletes
// the room entry the moment it empties, so rooms never leak.
func (r *Registry) removeLocked(room domain.RoomID, sessionID string) {
	members, ok := r.roomMembers[room]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.roomMembers, room)
	}
}

// rosterLocked collects member display names, skipping sessions that have
// not announced a name yet.
func (r *Registry) rosterLocked(room domain.RoomID) []string {
	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	roster := make([]string, 0, len(members))
	for sessionID := range members {
		if s, exists := r.sessions[sessionID]; exists && s.Name != "" {
			roster = append(roster, s.Name)
		}
	}
	return roster
}
