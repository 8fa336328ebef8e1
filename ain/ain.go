// Package ain implements the in-memory model and binary codec for AIN
// containers: versioned artifacts holding compiled bytecode, function
// and variable metadata, string and message tables, and structural
// declarations.
//
// All container-resident text (names, strings, messages) is kept in
// the container's own encoding, byte-for-byte as stored on disk.
// Converting to and from tool encodings happens at the edges, via the
// codec package.
package ain

import (
	"errors"
	"fmt"
)

// Supported container format versions.
const (
	MinVersion = 4
	MaxVersion = 14
)

// ErrUnsupportedVersion is returned when a requested container version
// falls outside the supported range.
var ErrUnsupportedVersion = errors.New("unsupported container version (4-14 supported)")

// Version is a container format version.
type Version struct {
	Major int
	Minor int
}

// Validate checks that the major version is within the supported range.
func (v Version) Validate() error {
	if v.Major < MinVersion || v.Major > MaxVersion {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}
	return nil
}

// String renders the version as "MAJOR.MINOR".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// DataType identifies the type of a variable, parameter, or return value.
type DataType int32

const (
	Void DataType = iota
	Int
	Float
	String
	Struct
	IntArray
	FloatArray
	StringArray
	StructArray
)

// String returns the source-level name of the type.
func (t DataType) String() string {
	switch t {
	case Void:
		return "void"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Struct:
		return "struct"
	case IntArray:
		return "array@int"
	case FloatArray:
		return "array@float"
	case StringArray:
		return "array@string"
	case StructArray:
		return "array@struct"
	default:
		return fmt.Sprintf("DataType(%d)", int32(t))
	}
}

// TypeByName resolves a source-level type name to a DataType.
func TypeByName(name string) (DataType, bool) {
	switch name {
	case "void":
		return Void, true
	case "int":
		return Int, true
	case "float":
		return Float, true
	case "string":
		return String, true
	case "struct":
		return Struct, true
	case "array@int":
		return IntArray, true
	case "array@float":
		return FloatArray, true
	case "array@string":
		return StringArray, true
	case "array@struct":
		return StructArray, true
	default:
		return Void, false
	}
}

// Variable is a named, typed slot: a global, a parameter, a local, or
// a struct member.
type Variable struct {
	Name string
	Type DataType
}

// Function is an entry in the function table. Address is the offset of
// the function's code in the CODE section. StructType is the index of
// the struct the function is a member of, or -1 for free functions
// (resolved by ResolveMemberFunctions after load).
type Function struct {
	Name       string
	Address    uint32
	Return     DataType
	Params     []Variable
	Vars       []Variable
	StructType int32
}

// StructDecl is an entry in the structure table. Constructor and
// Destructor are function-table indices, or -1.
type StructDecl struct {
	Name        string
	Members     []Variable
	Constructor int32
	Destructor  int32
}

// EnumDecl is an entry in the enumeration table.
type EnumDecl struct {
	Name   string
	Values []string
}

// Image is the in-memory representation of a container. It is owned
// exclusively by one run and mutated in place by applied edits.
type Image struct {
	Version Version

	Code      []byte
	Functions []Function
	Globals   []Variable
	Strings   []string
	Messages  []string
	Structs   []StructDecl
	Enums     []EnumDecl

	// Main is the function-table index of the entry point, or -1.
	Main int32
}

// New constructs a fresh, empty image at the requested version.
func New(v Version) (*Image, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &Image{Version: v, Main: -1}, nil
}

// FindFunction returns the index of the last function with the given
// name, or -1. Later entries shadow earlier ones, consistent with
// edits being applied in submission order.
func (img *Image) FindFunction(name string) int {
	for i := len(img.Functions) - 1; i >= 0; i-- {
		if img.Functions[i].Name == name {
			return i
		}
	}
	return -1
}

// AddFunction adds a function, or replaces the signature of an
// existing function with the same name. On replacement the existing
// address is preserved unless the incoming function carries one, and
// the member-function binding is always preserved. Returns the
// function-table index.
func (img *Image) AddFunction(fn Function) int {
	if i := img.FindFunction(fn.Name); i >= 0 {
		if fn.Address == 0 {
			fn.Address = img.Functions[i].Address
		}
		fn.StructType = img.Functions[i].StructType
		img.Functions[i] = fn
		return i
	}
	fn.StructType = -1
	img.Functions = append(img.Functions, fn)
	return len(img.Functions) - 1
}

// FindGlobal returns the index of the global with the given name, or -1.
func (img *Image) FindGlobal(name string) int {
	for i := len(img.Globals) - 1; i >= 0; i-- {
		if img.Globals[i].Name == name {
			return i
		}
	}
	return -1
}

// AddGlobal adds or replaces a global variable by name.
func (img *Image) AddGlobal(g Variable) int {
	if i := img.FindGlobal(g.Name); i >= 0 {
		img.Globals[i] = g
		return i
	}
	img.Globals = append(img.Globals, g)
	return len(img.Globals) - 1
}

// FindStruct returns the index of the struct with the given name, or -1.
func (img *Image) FindStruct(name string) int {
	for i := range img.Structs {
		if img.Structs[i].Name == name {
			return i
		}
	}
	return -1
}

// AddStruct adds or replaces a struct declaration by name, preserving
// resolved constructor/destructor bindings on replacement.
func (img *Image) AddStruct(s StructDecl) int {
	if i := img.FindStruct(s.Name); i >= 0 {
		s.Constructor = img.Structs[i].Constructor
		s.Destructor = img.Structs[i].Destructor
		img.Structs[i] = s
		return i
	}
	s.Constructor = -1
	s.Destructor = -1
	img.Structs = append(img.Structs, s)
	return len(img.Structs) - 1
}

// AddEnum adds or replaces an enum declaration by name.
func (img *Image) AddEnum(e EnumDecl) int {
	for i := range img.Enums {
		if img.Enums[i].Name == e.Name {
			img.Enums[i] = e
			return i
		}
	}
	img.Enums = append(img.Enums, e)
	return len(img.Enums) - 1
}

// InternString returns the index of s in the string table, adding it
// if absent. s must already be in the container encoding.
func (img *Image) InternString(s string) int {
	for i, existing := range img.Strings {
		if existing == s {
			return i
		}
	}
	img.Strings = append(img.Strings, s)
	return len(img.Strings) - 1
}

// SetString replaces the string at index i, or appends when i equals
// the current table length.
func (img *Image) SetString(i int, s string) error {
	return setTableEntry(&img.Strings, i, s)
}

// SetMessage replaces the message at index i, or appends when i equals
// the current table length.
func (img *Image) SetMessage(i int, s string) error {
	return setTableEntry(&img.Messages, i, s)
}

// AddMessage appends a message and returns its index.
func (img *Image) AddMessage(s string) int {
	img.Messages = append(img.Messages, s)
	return len(img.Messages) - 1
}

func setTableEntry(table *[]string, i int, s string) error {
	switch {
	case i >= 0 && i < len(*table):
		(*table)[i] = s
	case i == len(*table):
		*table = append(*table, s)
	default:
		return fmt.Errorf("index %d out of range (table has %d entries)", i, len(*table))
	}
	return nil
}
