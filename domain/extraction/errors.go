package extraction

import "errors"

var (
	// ErrInvalidRequest is returned when an extraction request fails validation
	ErrInvalidRequest = errors.New("invalid extraction request")

	// ErrToolNotFound is returned when the decoding binary cannot be located or started
	ErrToolNotFound = errors.New("decoding tool not found")

	// ErrProcessFault is returned when the decoding process exits abnormally without a cancel request
	ErrProcessFault = errors.New("decoding process failed")

	// ErrStatusStream is returned when reading the decoder's status stream fails
	ErrStatusStream = errors.New("failed to read decoder status stream")

	// ErrArchiveFailed is returned when the frame archive cannot be written
	ErrArchiveFailed = errors.New("failed to create frame archive")

	// ErrWorkspace is returned when the temporary workspace cannot be prepared or removed
	ErrWorkspace = errors.New("workspace error")

	// ErrAlreadyStarted is returned when Start is called more than once on the same orchestrator
	ErrAlreadyStarted = errors.New("extraction already started")

	// ErrInvalidTransition is returned when the run state machine is asked to re-enter or skip a phase
	ErrInvalidTransition = errors.New("invalid phase transition")
)
