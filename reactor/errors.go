package reactor

import "errors"

var (
	ErrUnsupported   = errors.New("reactor: event loop not supported on this platform")
	ErrClosed        = errors.New("reactor: loop closed")
	ErrRunning       = errors.New("reactor: loop already running")
	ErrBadDescriptor = errors.New("reactor: bad file descriptor")
	ErrFDBusy        = errors.New("reactor: file descriptor already watched")
	ErrNilCallback   = errors.New("reactor: nil callback")
	ErrNegativeTime  = errors.New("reactor: negative timeout")
)
