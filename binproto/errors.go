package binproto

import (
	"errors"
	"fmt"
)

var (
	// ErrEOF is returned when fewer bytes remain than a read requires.
	ErrEOF = errors.New("unexpected end of buffer")

	// ErrBadVersion is returned when a message header does not carry the
	// expected version magic.
	ErrBadVersion = errors.New("bad version in message header")

	// ErrInvalidDataLength is returned for negative lengths and counts, and
	// for declared sizes whose byte requirement overflows.
	ErrInvalidDataLength = errors.New("invalid data length")

	// ErrSkipDepthExceeded is returned when skipping a value would nest
	// deeper than the reader's configured depth.
	ErrSkipDepthExceeded = errors.New("skip depth exceeded")

	// ErrUnexpectedStopInSkip is returned when STOP is the type being skipped.
	ErrUnexpectedStopInSkip = errors.New("unexpected stop in skip")

	// ErrStreamUnsupported is returned whenever the STREAM type is encountered.
	ErrStreamUnsupported = errors.New("stream type unsupported")

	// ErrInvalidType is returned for unrecognized type tag codes.
	ErrInvalidType = errors.New("invalid type")

	// ErrInvalidMessageType is returned for unrecognized message type codes.
	ErrInvalidMessageType = errors.New("invalid message type")

	// ErrInvalidUTF8 is returned when a string value is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8 in string")
)

// ShortReadError is returned when a read needs more bytes than remain. It
// matches ErrEOF.
type ShortReadError struct {
	What string
	Want int
	Have int
}

func (e ShortReadError) Error() string {
	return fmt.Sprintf("short read on %s: want %d bytes, have %d", e.What, e.Want, e.Have)
}

func (e ShortReadError) Is(err error) bool {
	if err == ErrEOF {
		return true
	}
	_, ok := err.(ShortReadError)
	return ok
}

// InvalidTypeError is returned when a type tag byte is not a known code. It
// matches ErrInvalidType.
type InvalidTypeError struct {
	Code int8
}

func (e InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid type code %d", e.Code)
}

func (e InvalidTypeError) Is(err error) bool {
	if err == ErrInvalidType {
		return true
	}
	_, ok := err.(InvalidTypeError)
	return ok
}

// InvalidMessageTypeError is returned when a message header carries an
// unknown message type. It matches ErrInvalidMessageType.
type InvalidMessageTypeError struct {
	Code uint32
}

func (e InvalidMessageTypeError) Error() string {
	return fmt.Sprintf("invalid message type code %d", e.Code)
}

func (e InvalidMessageTypeError) Is(err error) bool {
	if err == ErrInvalidMessageType {
		return true
	}
	_, ok := err.(InvalidMessageTypeError)
	return ok
}

// InvalidUTF8Error is returned by ReadString when the payload is not UTF-8. It
// matches ErrInvalidUTF8.
type InvalidUTF8Error struct {
	Length int
}

func (e InvalidUTF8Error) Error() string {
	return fmt.Sprintf(
		"string of %d bytes is not valid utf-8; read it as binary instead", e.Length,
	)
}

func (e InvalidUTF8Error) Is(err error) bool {
	if err == ErrInvalidUTF8 {
		return true
	}
	_, ok := err.(InvalidUTF8Error)
	return ok
}
