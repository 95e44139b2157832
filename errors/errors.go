package errors

import "fmt"

var (
	ErrWorkerPanic  = fmt.Errorf("worker panic")
	ErrNotJoined    = fmt.Errorf("session has not joined a room")
	ErrRoomMismatch = fmt.Errorf("event references a room the session is not joined to")
	ErrStoreClosed  = fmt.Errorf("message store is closed")
	ErrSinkFull     = fmt.Errorf("connection buffer full, event dropped")
	ErrEmptyWords   = fmt.Errorf("no censored words loaded")
)
