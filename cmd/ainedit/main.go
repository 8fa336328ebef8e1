// ainedit builds and edits AIN containers: assembly, source, JSON
// declarations, and text tables are applied in command-line order to
// a fresh or existing container.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/ainkit/ainkit/ain"
	"github.com/ainkit/ainkit/asm"
	"github.com/ainkit/ainkit/codec"
	"github.com/ainkit/ainkit/decl"
	"github.com/ainkit/ainkit/edit"
	"github.com/ainkit/ainkit/jaf"
	"github.com/ainkit/ainkit/project"
	"github.com/ainkit/ainkit/text"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	cfg := edit.DefaultConfig()

	var requests []edit.Request
	queueInput := func(kind edit.Kind) func(string) error {
		return func(path string) error {
			requests = append(requests, edit.Request{Kind: kind, Path: path})
			return nil
		}
	}

	versionArg := flag.String("ain-version", "4.0", "container version for new files (M or M.N)")
	flag.Func("code", "assembly `file` to apply (repeatable, in order)", queueInput(edit.KindCode))
	flag.Func("jaf", "source `file` to compile (repeatable, in order)", queueInput(edit.KindSource))
	flag.Func("json", "declaration `file` to merge (repeatable, in order)", queueInput(edit.KindDecl))
	flag.Func("text", "string/message `file` to merge (repeatable, in order)", queueInput(edit.KindText))
	flag.StringVar(&cfg.OutputPath, "o", cfg.OutputPath, "output container `path`")
	flag.StringVar(&cfg.TranscodeTarget, "transcode", "", "re-encode container text to `encoding` instead of editing")
	flag.StringVar(&cfg.ProjectPath, "project", "", "build from a project `manifest` instead of editing")
	flag.BoolVar(&cfg.Raw, "raw", false, "assemble string operands verbatim")
	flag.BoolVar(&cfg.Silent, "silent", false, "suppress progress notices")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ainedit [options] [input.ain]\n\n")
		fmt.Fprintf(os.Stderr, "Edits the given container, or builds a new one when none is given.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ainedit -json decls.json -code main.jam -o game.ain\n")
		fmt.Fprintf(os.Stderr, "  ainedit -code patch.jam -o patched.ain game.ain\n")
		fmt.Fprintf(os.Stderr, "  ainedit -transcode UTF-8 -o utf8.ain game.ain\n")
		fmt.Fprintf(os.Stderr, "  ainedit -project demo.toml\n")
	}
	flag.Parse()

	commonlog.Configure(0, nil)
	if cfg.Silent {
		commonlog.SetMaxLevel(commonlog.Warning)
	}

	version, err := edit.ParseVersion(*versionArg)
	if err != nil {
		fatal(err)
	}
	if err := version.Validate(); err != nil {
		fatal(fmt.Errorf("version %s: %w", *versionArg, err))
	}
	cfg.Version = version

	switch args := flag.Args(); len(args) {
	case 0:
	case 1:
		cfg.InputPath = args[0]
	default:
		fatal(fmt.Errorf("at most one input container, got %d", len(args)))
	}

	queue := edit.NewQueue(0)
	for _, req := range requests {
		if err := queue.Push(req.Kind, req.Path); err != nil {
			fatal(err)
		}
	}

	if err := edit.Run(cfg, buildTools(cfg), queue); err != nil {
		fatal(err)
	}
}

// buildTools wires the concrete assembler, compiler, and mergers.
// All of them encode input text from the edit-file encoding into the
// container encoding.
func buildTools(cfg edit.Config) edit.Tools {
	conv, err := codec.NewConverter(cfg.InputEncoding, cfg.ContainerEncoding)
	if err != nil {
		fatal(err)
	}
	encode := conv.Convert

	var flags asm.Flags
	if cfg.Raw {
		flags |= asm.FlagRaw
	}

	tools := edit.Tools{
		Asm:       &asm.Assembler{Flags: flags, Encode: encode},
		Jaf:       &jaf.Compiler{Encode: encode},
		Decl:      &decl.Merger{Encode: encode},
		Text:      &text.Merger{Encode: encode},
		Transcode: transcoder{},
	}
	tools.Project = &project.Builder{Tools: tools}
	return tools
}

// transcoder adapts the codec/ain transcode pair to the pipeline.
type transcoder struct{}

func (transcoder) Transcode(img *ain.Image, from, to string) error {
	conv, err := codec.NewConverter(from, to)
	if err != nil {
		return err
	}
	return ain.Transcode(img, conv)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "ainedit: %v\n", err)
	os.Exit(1)
}
