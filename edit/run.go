package edit

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/ainkit/ainkit/ain"
	"github.com/ainkit/ainkit/codec"
)

var log = commonlog.GetLogger("ainedit")

var (
	// ErrContainerOpen wraps failures to load the input container.
	ErrContainerOpen = errors.New("cannot open container")

	// ErrContainerWrite wraps failures to commit the output container.
	ErrContainerWrite = errors.New("cannot write container")

	// ErrTranscodeWithoutInput rejects a transcode run with no input
	// container: there is no text to re-encode.
	ErrTranscodeWithoutInput = errors.New("transcode requires an existing container")
)

// Open prepares the image a run edits: a fresh container at the
// requested version when path is empty, otherwise the existing file.
// An existing file keeps its own version; the requested one is
// ignored. Member functions are resolved either way. decode converts
// container-encoded names to UTF-8 and may be nil.
func Open(path string, v ain.Version, decode func(string) (string, error)) (*ain.Image, error) {
	var img *ain.Image
	var err error
	if path == "" {
		if img, err = ain.New(v); err != nil {
			return nil, err
		}
	} else {
		if img, err = ain.Open(path); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContainerOpen, err)
		}
		log.Noticef("opened %s (version %d.%d)", path, img.Version.Major, img.Version.Minor)
	}
	if err := ain.ResolveMemberFunctions(img, decode); err != nil {
		return nil, err
	}
	return img, nil
}

// Apply drains the queue onto the image in submission order. The
// first failing input aborts the run; nothing reorders or retries.
func Apply(img *ain.Image, queue *Queue, tools Tools) error {
	for req := range queue.Drain() {
		log.Noticef("applying %s input %s", req.Kind, req.Path)
		var err error
		switch req.Kind {
		case KindCode:
			err = tools.Asm.AssembleFile(req.Path, img)
		case KindSource:
			err = tools.Jaf.BuildFile(img, req.Path)
		case KindDecl:
			err = tools.Decl.Merge(req.Path, img)
		case KindText:
			err = tools.Text.Merge(req.Path, img)
		default:
			err = fmt.Errorf("unhandled input kind %d", req.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Run performs one edit run: decide the mode, apply it, commit the
// output. Nothing is written when any prior step fails.
func Run(cfg Config, tools Tools, queue *Queue) error {
	switch Decide(cfg) {
	case ModeProject:
		if n := queue.Len(); n > 0 {
			log.Warningf("project build: ignoring %d input(s) given outside the manifest", n)
		}
		return tools.Project.BuildProject(cfg.ProjectPath, cfg)

	case ModeTranscode:
		if cfg.InputPath == "" {
			return ErrTranscodeWithoutInput
		}
		if n := queue.Len(); n > 0 {
			log.Warningf("transcode: ignoring %d queued input(s)", n)
		}
		img, err := openFor(cfg)
		if err != nil {
			return err
		}
		log.Noticef("transcoding %s to %s", cfg.ContainerEncoding, cfg.TranscodeTarget)
		if err := tools.Transcode.Transcode(img, cfg.ContainerEncoding, cfg.TranscodeTarget); err != nil {
			return err
		}
		return commit(cfg.OutputPath, img)

	default: // ModeApplyEdits
		img, err := openFor(cfg)
		if err != nil {
			return err
		}
		if err := Apply(img, queue, tools); err != nil {
			return err
		}
		return commit(cfg.OutputPath, img)
	}
}

func openFor(cfg Config) (*ain.Image, error) {
	decode, err := codec.Decoder(cfg.ContainerEncoding)
	if err != nil {
		return nil, err
	}
	return Open(cfg.InputPath, cfg.Version, decode)
}

func commit(path string, img *ain.Image) error {
	log.Noticef("writing %s", path)
	if err := ain.Write(path, img); err != nil {
		return fmt.Errorf("%w: %v", ErrContainerWrite, err)
	}
	return nil
}
