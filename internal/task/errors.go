package task

import (
	"errors"
	"fmt"
)

// Error variables for task and project operations.
var (
	ErrTitleRequired      = errors.New("title is required")
	ErrNameRequired       = errors.New("project name is required")
	ErrIDRequired         = errors.New("task ID is required")
	ErrTaskNotFound       = errors.New("task not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrParentNotFound     = errors.New("parent task not found")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidDate        = errors.New("invalid date")
	ErrIDGenerationFailed = errors.New("no unique id after repeated attempts")

	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDataDirEmpty       = errors.New("data_dir cannot be empty")
	ErrInvalidLogLevel    = errors.New("invalid log_level")
)

func errorf(sentinel error, value string) error {
	return fmt.Errorf("%w: %q", sentinel, value)
}
