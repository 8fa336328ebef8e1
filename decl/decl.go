// Package decl merges JSON structural declarations into an image:
// structs, enums, globals, and function signatures. Declarations
// never touch the code section.
package decl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/ainkit/ainkit/ain"
)

// ErrBadDecl tags all declaration-file errors.
var ErrBadDecl = errors.New("bad declaration file")

// Comments and trailing commas are allowed; jsonc strips them before
// decoding.
type document struct {
	Structs   []structEntry `json:"structs"`
	Enums     []enumEntry   `json:"enums"`
	Globals   []fieldEntry  `json:"globals"`
	Functions []funcEntry   `json:"functions"`
}

type fieldEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type structEntry struct {
	Name    string       `json:"name"`
	Members []fieldEntry `json:"members"`
}

type enumEntry struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type funcEntry struct {
	Name   string       `json:"name"`
	Return string       `json:"return"`
	Params []fieldEntry `json:"params"`
	Vars   []fieldEntry `json:"vars"`
}

// Merger applies declaration files to an image. Encode converts
// UTF-8 names from the file into the container encoding; nil means
// identity.
type Merger struct {
	Encode func(string) (string, error)
}

// Merge reads the declaration file at path and applies it to img.
func (m *Merger) Merge(path string, img *ain.Image) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadDecl, err)
	}
	return m.MergeBytes(data, path, img)
}

// MergeBytes applies one declaration document to img. name is used in
// diagnostics only. Entries add or replace by name; function entries
// replace the signature but keep the address of an existing function.
func (m *Merger) MergeBytes(data []byte, name string, img *ain.Image) error {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadDecl, name, err)
	}

	// Structs first, so later entries can use struct type names.
	for _, s := range doc.Structs {
		members, err := m.fields(img, name, s.Name, s.Members)
		if err != nil {
			return err
		}
		sname, err := m.encode(s.Name)
		if err != nil {
			return fmt.Errorf("%w: %s: struct %q: %v", ErrBadDecl, name, s.Name, err)
		}
		img.AddStruct(ain.StructDecl{Name: sname, Members: members})
	}
	for _, e := range doc.Enums {
		ename, err := m.encode(e.Name)
		if err != nil {
			return fmt.Errorf("%w: %s: enum %q: %v", ErrBadDecl, name, e.Name, err)
		}
		values := make([]string, len(e.Values))
		for i, v := range e.Values {
			if values[i], err = m.encode(v); err != nil {
				return fmt.Errorf("%w: %s: enum %q: %v", ErrBadDecl, name, e.Name, err)
			}
		}
		img.AddEnum(ain.EnumDecl{Name: ename, Values: values})
	}
	for _, g := range doc.Globals {
		t, err := m.resolveType(img, g.Type)
		if err != nil {
			return fmt.Errorf("%w: %s: global %q: %v", ErrBadDecl, name, g.Name, err)
		}
		gname, err := m.encode(g.Name)
		if err != nil {
			return fmt.Errorf("%w: %s: global %q: %v", ErrBadDecl, name, g.Name, err)
		}
		img.AddGlobal(ain.Variable{Name: gname, Type: t})
	}
	for _, f := range doc.Functions {
		ret, err := m.resolveType(img, f.Return)
		if err != nil {
			return fmt.Errorf("%w: %s: function %q: %v", ErrBadDecl, name, f.Name, err)
		}
		params, err := m.fields(img, name, f.Name, f.Params)
		if err != nil {
			return err
		}
		vars, err := m.fields(img, name, f.Name, f.Vars)
		if err != nil {
			return err
		}
		fname, err := m.encode(f.Name)
		if err != nil {
			return fmt.Errorf("%w: %s: function %q: %v", ErrBadDecl, name, f.Name, err)
		}
		img.AddFunction(ain.Function{Name: fname, Return: ret, Params: params, Vars: vars})
	}
	return nil
}

func (m *Merger) encode(s string) (string, error) {
	if m.Encode == nil {
		return s, nil
	}
	return m.Encode(s)
}

func (m *Merger) fields(img *ain.Image, file, owner string, entries []fieldEntry) ([]ain.Variable, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	vars := make([]ain.Variable, len(entries))
	for i, e := range entries {
		t, err := m.resolveType(img, e.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q member %q: %v", ErrBadDecl, file, owner, e.Name, err)
		}
		name, err := m.encode(e.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q member %q: %v", ErrBadDecl, file, owner, e.Name, err)
		}
		vars[i] = ain.Variable{Name: name, Type: t}
	}
	return vars, nil
}

func (m *Merger) resolveType(img *ain.Image, name string) (ain.DataType, error) {
	if t, ok := ain.TypeByName(name); ok {
		return t, nil
	}
	encoded, err := m.encode(name)
	if err != nil {
		return ain.Void, err
	}
	if img.FindStruct(encoded) >= 0 {
		return ain.Struct, nil
	}
	return ain.Void, fmt.Errorf("unknown type %q", name)
}
