package edit

import (
	"github.com/ainkit/ainkit/ain"
)

// The pipeline depends only on these collaborator interfaces; the
// concrete assembler, compiler, and mergers are wired in by the
// caller.

// Assembler applies one assembly file to an image.
type Assembler interface {
	AssembleFile(path string, img *ain.Image) error
}

// Compiler applies one source file to an image.
type Compiler interface {
	BuildFile(img *ain.Image, path string) error
}

// DeclMerger applies one declaration file to an image.
type DeclMerger interface {
	Merge(path string, img *ain.Image) error
}

// TextMerger applies one string/message table file to an image.
type TextMerger interface {
	Merge(path string, img *ain.Image) error
}

// ProjectBuilder runs a whole project-manifest build.
type ProjectBuilder interface {
	BuildProject(path string, cfg Config) error
}

// Transcoder re-encodes all image text from one encoding to another.
type Transcoder interface {
	Transcode(img *ain.Image, from, to string) error
}

// Tools bundles the collaborators one run dispatches to.
type Tools struct {
	Asm       Assembler
	Jaf       Compiler
	Decl      DeclMerger
	Text      TextMerger
	Project   ProjectBuilder
	Transcode Transcoder
}
