package project

import (
	"github.com/tliron/commonlog"

	"github.com/ainkit/ainkit/edit"
)

var log = commonlog.GetLogger("ainedit.project")

// Builder runs manifest builds through the edit pipeline. It
// implements edit.ProjectBuilder.
type Builder struct {
	Tools edit.Tools
}

// BuildProject loads the manifest at path and builds its output
// container. The manifest's version wins over the one in cfg when
// present. A build whose manifest, inputs, and output all match the
// stored cache is skipped entirely.
func (b *Builder) BuildProject(path string, cfg edit.Config) error {
	m, err := Load(path)
	if err != nil {
		return err
	}
	kinds, err := m.queueKinds()
	if err != nil {
		return err
	}

	current, err := snapshot(m)
	if err == nil {
		if stored, ok := loadCache(cachePath(m.Project.Output)); ok && stored.equal(current) {
			log.Noticef("%s: up to date", m.Project.Output)
			return nil
		}
	}

	queue := edit.NewQueue(0)
	for i, in := range m.Inputs {
		if err := queue.Push(kinds[i], in.Path); err != nil {
			return err
		}
	}

	run := cfg
	run.ProjectPath = ""
	run.TranscodeTarget = ""
	run.InputPath = m.Project.Source
	run.OutputPath = m.Project.Output
	if m.Project.Version != "" {
		// Validated by Load.
		run.Version, _ = edit.ParseVersion(m.Project.Version)
	}

	if err := edit.Run(run, b.Tools, queue); err != nil {
		return err
	}

	fresh, err := snapshot(m)
	if err != nil {
		return err
	}
	if err := writeCache(cachePath(m.Project.Output), fresh); err != nil {
		log.Warningf("cannot write build cache: %v", err)
	}
	return nil
}
