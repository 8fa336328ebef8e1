package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ainkit/ainkit/ain"
	"github.com/ainkit/ainkit/edit"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "demo.toml"), `
[project]
name    = "demo"
version = "8.1"
output  = "demo.ain"

[[input]]
kind = "jam"
path = "src/main.jam"

[[input]]
kind = "text"
path = "strings.txt"
`)

	m, err := Load(filepath.Join(dir, "demo.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Project.Output != filepath.Join(dir, "demo.ain") {
		t.Fatalf("output = %q", m.Project.Output)
	}
	if len(m.Inputs) != 2 || m.Inputs[0].Path != filepath.Join(dir, "src", "main.jam") {
		t.Fatalf("inputs = %#v", m.Inputs)
	}
	kinds, err := m.queueKinds()
	if err != nil {
		t.Fatal(err)
	}
	if kinds[0] != edit.KindCode || kinds[1] != edit.KindText {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestLoadRejectsBadManifests(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		doc  string
	}{
		{"missing output", "[project]\nname = \"x\"\n"},
		{"bad kind", "[project]\noutput = \"x.ain\"\n[[input]]\nkind = \"exe\"\npath = \"a\"\n"},
		{"missing input path", "[project]\noutput = \"x.ain\"\n[[input]]\nkind = \"jam\"\n"},
		{"bad version", "[project]\noutput = \"x.ain\"\nversion = \"abc\"\n"},
		{"not toml", "{\"output\": 1}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".toml")
			writeFile(t, path, tc.doc)
			if _, err := Load(path); !errors.Is(err, ErrBadManifest) {
				t.Fatalf("error = %v, want ErrBadManifest", err)
			}
		})
	}
}

// countingAssembler counts dispatches so cache behavior is visible.
type countingAssembler struct {
	calls int
}

func (a *countingAssembler) AssembleFile(path string, img *ain.Image) error {
	a.calls++
	img.InternString(path)
	return nil
}

func setupProject(t *testing.T) (manifestPath string, asm *countingAssembler, builder *Builder) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.jam"), ".func main : void\n.endfunc\n")
	manifestPath = filepath.Join(dir, "demo.toml")
	writeFile(t, manifestPath, `
[project]
name    = "demo"
version = "8"
output  = "demo.ain"

[[input]]
kind = "jam"
path = "main.jam"
`)
	asm = &countingAssembler{}
	builder = &Builder{Tools: edit.Tools{Asm: asm}}
	return manifestPath, asm, builder
}

func TestBuildProjectWritesOutput(t *testing.T) {
	manifestPath, asm, builder := setupProject(t)
	if err := builder.BuildProject(manifestPath, edit.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	if asm.calls != 1 {
		t.Fatalf("assembler called %d times", asm.calls)
	}

	out := filepath.Join(filepath.Dir(manifestPath), "demo.ain")
	img, err := ain.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	// The manifest version must win over the CLI default.
	if img.Version.Major != 8 {
		t.Fatalf("version = %v, want the manifest's", img.Version)
	}
	if _, err := os.Stat(out + ".buildcache"); err != nil {
		t.Fatalf("cache not written: %v", err)
	}
}

func TestBuildProjectCacheHitSkips(t *testing.T) {
	manifestPath, asm, builder := setupProject(t)
	cfg := edit.DefaultConfig()
	if err := builder.BuildProject(manifestPath, cfg); err != nil {
		t.Fatal(err)
	}
	if err := builder.BuildProject(manifestPath, cfg); err != nil {
		t.Fatal(err)
	}
	if asm.calls != 1 {
		t.Fatalf("assembler called %d times, want cache hit on the second build", asm.calls)
	}
}

func TestBuildProjectInputChangeRebuilds(t *testing.T) {
	manifestPath, asm, builder := setupProject(t)
	cfg := edit.DefaultConfig()
	if err := builder.BuildProject(manifestPath, cfg); err != nil {
		t.Fatal(err)
	}

	input := filepath.Join(filepath.Dir(manifestPath), "main.jam")
	writeFile(t, input, "; changed\n.func main : void\n.endfunc\n")

	if err := builder.BuildProject(manifestPath, cfg); err != nil {
		t.Fatal(err)
	}
	if asm.calls != 2 {
		t.Fatalf("assembler called %d times, want rebuild after input change", asm.calls)
	}
}

func TestBuildProjectCorruptCacheRebuilds(t *testing.T) {
	manifestPath, asm, builder := setupProject(t)
	cfg := edit.DefaultConfig()
	if err := builder.BuildProject(manifestPath, cfg); err != nil {
		t.Fatal(err)
	}

	cache := filepath.Join(filepath.Dir(manifestPath), "demo.ain.buildcache")
	writeFile(t, cache, "not cbor")

	if err := builder.BuildProject(manifestPath, cfg); err != nil {
		t.Fatal(err)
	}
	if asm.calls != 2 {
		t.Fatalf("assembler called %d times, want rebuild on corrupt cache", asm.calls)
	}
}
