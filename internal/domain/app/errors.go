package app

import (
	"errors"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/process"
)

var (
	ErrNotLoaded         = errors.New("application not loaded")
	ErrAlreadyLoaded     = errors.New("application already loaded")
	ErrAlreadyForeground = errors.New("application already in foreground")
	ErrNotFound          = errors.New("application not found")
	ErrDuplicatePath     = errors.New("application path already in use")

	ErrNotRunning     = process.ErrNotRunning
	ErrAlreadyRunning = process.ErrAlreadyRunning
)
