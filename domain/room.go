package domain

// RoomID identifies a chat room. Rooms are created implicitly when the
// first session joins and disappear when the last one leaves.
type RoomID string
