package transport

import "fmt"

// FrameTooLargeError is returned when a request or response exceeds the configured frame size.
// Server transports report it to the RejectHandleFunc and drop the request.
type FrameTooLargeError struct {
	// Size is the payload size announced by the frame (or the request body read so far)
	Size uint64
	// Limit is the configured maximum payload size
	Limit int
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("frame of %d bytes exceeds the limit of %d bytes", e.Size, e.Limit)
}
