package edit

import (
	"github.com/ainkit/ainkit/ain"
	"github.com/ainkit/ainkit/codec"
)

// Config carries one run's settings, resolved before any image is
// touched.
type Config struct {
	InputPath  string // existing container to edit, "" for a fresh one
	OutputPath string
	Version    ain.Version // for fresh containers; ignored when opening

	Raw    bool // verbatim assembly operands
	Silent bool // suppress progress notices

	InputEncoding     string // encoding of edit input files
	ContainerEncoding string // encoding of text stored in the container

	TranscodeTarget string // non-empty selects transcode mode
	ProjectPath     string // non-empty selects project mode
}

// DefaultConfig mirrors the CLI defaults.
func DefaultConfig() Config {
	return Config{
		OutputPath:        "out.ain",
		Version:           ain.Version{Major: 4},
		InputEncoding:     codec.DefaultInputEncoding,
		ContainerEncoding: codec.DefaultContainerEncoding,
	}
}

// Mode is the single operation a run performs. Modes are mutually
// exclusive; Decide picks exactly one.
type Mode int

const (
	ModeApplyEdits Mode = iota
	ModeTranscode
	ModeProject
)

func (m Mode) String() string {
	switch m {
	case ModeApplyEdits:
		return "apply-edits"
	case ModeTranscode:
		return "transcode"
	case ModeProject:
		return "project"
	default:
		return "unknown"
	}
}

// Decide selects the run mode: project wins over transcode wins over
// plain edits. Conflicting queued inputs are warned about at run
// time, never fatal.
func Decide(cfg Config) Mode {
	switch {
	case cfg.ProjectPath != "":
		return ModeProject
	case cfg.TranscodeTarget != "":
		return ModeTranscode
	default:
		return ModeApplyEdits
	}
}
