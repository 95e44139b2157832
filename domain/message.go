package domain

// Message is a persisted chat message. ID is assigned by the message store
// at append time and is globally unique and strictly increasing; it is the
// authoritative ordering key. SentAt is the client-supplied timestamp in
// milliseconds and is never trusted for ordering.
type Message struct {
	ID     int64
	Room   RoomID
	Sender string
	Text   string
	SentAt int64
}
