package tilegrid

import (
	"errors"
	"fmt"
)

// Error kinds. A *Error matches exactly one of these with errors.Is.
var (
	// ErrShaderCompilation indicates malformed or backend-unsupported shader source.
	ErrShaderCompilation = errors.New("tilegrid: shader compilation failed")

	// ErrPipelineAssembly indicates the backend rejected the buffer, attribute
	// or pipeline layout.
	ErrPipelineAssembly = errors.New("tilegrid: pipeline assembly failed")

	// ErrFrameSubmission indicates a device, surface or present failure while
	// rendering a frame.
	ErrFrameSubmission = errors.New("tilegrid: frame submission failed")
)

var (
	// ErrInvalidTileSize is returned for a tile size that is not positive.
	ErrInvalidTileSize = errors.New("tilegrid: tile size must be positive")

	// ErrInvalidViewport is returned for negative viewport dimensions.
	ErrInvalidViewport = errors.New("tilegrid: viewport dimensions must not be negative")

	// ErrInvalidCullMode is returned for an unknown cull mode.
	ErrInvalidCullMode = errors.New("tilegrid: invalid cull mode")

	// ErrViewportMismatch is returned when the output target size differs from
	// the configured viewport.
	ErrViewportMismatch = errors.New("tilegrid: target size does not match viewport")

	// ErrFrameInFlight is returned when RenderFrame or Rebuild is called while
	// a frame is being encoded.
	ErrFrameInFlight = errors.New("tilegrid: frame already in flight")

	// ErrClosed is returned by a Renderer after Close.
	ErrClosed = errors.New("tilegrid: renderer closed")
)

// Stage names the step that failed.
type Stage string

// Stages reported in *Error.
const (
	StageShaderCompile  Stage = "shader-compile"
	StageBufferUpload   Stage = "buffer-upload"
	StagePipelineCreate Stage = "pipeline-create"
	StageBeginFrame     Stage = "begin-frame"
	StageSubmit         Stage = "submit"
	StagePresent        Stage = "present"
)

// Kind returns the error kind sentinel for the stage.
func (s Stage) Kind() error {
	switch s {
	case StageShaderCompile:
		return ErrShaderCompilation
	case StageBufferUpload, StagePipelineCreate:
		return ErrPipelineAssembly
	default:
		return ErrFrameSubmission
	}
}

// Error reports a failure at a specific setup or frame stage.
type Error struct {
	Stage Stage
	Err   error
}

// NewError wraps err as a failure of stage. It returns nil for a nil err.
func NewError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Stage: stage, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v (%s): %v", e.Stage.Kind(), e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinel for the error's stage.
func (e *Error) Is(target error) bool {
	return target == e.Stage.Kind()
}

// StageOf returns the stage of the first *Error in err's chain.
func StageOf(err error) (Stage, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage, true
	}
	return "", false
}
