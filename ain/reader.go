package ain

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrInvalidMagic  = errors.New("invalid magic number: expected AIN0")
	ErrCorruptHeader = errors.New("corrupt container header")
	ErrCorruptData   = errors.New("corrupt container data")
	ErrUnexpectedEOF = errors.New("unexpected end of container data")
)

// Open reads a container from a file.
func Open(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read container: %w", err)
	}
	return ReadBytes(data)
}

// Read reads a container from r.
func Read(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read container: %w", err)
	}
	return ReadBytes(data)
}

// ReadBytes parses a container from a byte slice.
func ReadBytes(data []byte) (*Image, error) {
	rd := &reader{data: data}

	if len(data) < headerSize {
		return nil, ErrCorruptHeader
	}
	magic, _ := rd.bytes(4)
	if string(magic) != string(Magic[:]) {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, magic)
	}
	major, _ := rd.uint32()
	minor, _ := rd.uint32()

	img := &Image{
		Version: Version{Major: int(major), Minor: int(minor)},
		Main:    -1,
	}
	if err := img.Version.Validate(); err != nil {
		return nil, fmt.Errorf("%w (stored in header)", err)
	}

	for !rd.done() {
		tag, err := rd.bytes(4)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated section tag", ErrCorruptData)
		}
		length, err := rd.uint32()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated section length", ErrCorruptData)
		}
		payload, err := rd.bytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("%w: section %q: %v", ErrCorruptData, tag, err)
		}
		if err := img.readSection(string(tag), payload); err != nil {
			return nil, fmt.Errorf("%w: section %q: %v", ErrCorruptData, tag, err)
		}
	}
	return img, nil
}

func (img *Image) readSection(tag string, payload []byte) error {
	rd := &reader{data: payload}
	var err error
	switch tag {
	case string(sectionCode[:]):
		img.Code = append([]byte(nil), payload...)
	case string(sectionFunc[:]):
		img.Functions, err = rd.functions()
	case string(sectionGlob[:]):
		img.Globals, err = rd.variables()
	case string(sectionStr[:]):
		img.Strings, err = rd.stringTable()
	case string(sectionMsg[:]):
		img.Messages, err = rd.stringTable()
	case string(sectionStruct[:]):
		img.Structs, err = rd.structs()
	case string(sectionEnum[:]):
		img.Enums, err = rd.enums()
	case string(sectionMain[:]):
		var v uint32
		if v, err = rd.uint32(); err == nil {
			img.Main = int32(v)
		}
	default:
		return fmt.Errorf("unknown section tag %q", tag)
	}
	return err
}

// reader is a bounds-checked cursor over raw container bytes.
type reader struct {
	data   []byte
	offset int
}

func (r *reader) done() bool {
	return r.offset >= len(r.data)
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.offset+n > len(r.data) {
		return nil, ErrUnexpectedEOF
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return readUint32(b), nil
}

func (r *reader) int32() (int32, error) {
	v, err := r.uint32()
	return int32(v), err
}

func (r *reader) string() (string, error) {
	length, err := r.uint32()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(length))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) stringTable() ([]string, error) {
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	table := make([]string, 0, count)
	for range count {
		s, err := r.string()
		if err != nil {
			return nil, err
		}
		table = append(table, s)
	}
	return table, nil
}

func (r *reader) variables() ([]Variable, error) {
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	vars := make([]Variable, 0, count)
	for range count {
		name, err := r.string()
		if err != nil {
			return nil, err
		}
		typ, err := r.int32()
		if err != nil {
			return nil, err
		}
		vars = append(vars, Variable{Name: name, Type: DataType(typ)})
	}
	return vars, nil
}

func (r *reader) functions() ([]Function, error) {
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	fns := make([]Function, 0, count)
	for range count {
		var fn Function
		if fn.Name, err = r.string(); err != nil {
			return nil, err
		}
		if fn.Address, err = r.uint32(); err != nil {
			return nil, err
		}
		ret, err := r.int32()
		if err != nil {
			return nil, err
		}
		fn.Return = DataType(ret)
		if fn.StructType, err = r.int32(); err != nil {
			return nil, err
		}
		if fn.Params, err = r.variables(); err != nil {
			return nil, err
		}
		if fn.Vars, err = r.variables(); err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

func (r *reader) structs() ([]StructDecl, error) {
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	structs := make([]StructDecl, 0, count)
	for range count {
		var s StructDecl
		if s.Name, err = r.string(); err != nil {
			return nil, err
		}
		if s.Constructor, err = r.int32(); err != nil {
			return nil, err
		}
		if s.Destructor, err = r.int32(); err != nil {
			return nil, err
		}
		if s.Members, err = r.variables(); err != nil {
			return nil, err
		}
		structs = append(structs, s)
	}
	return structs, nil
}

func (r *reader) enums() ([]EnumDecl, error) {
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	enums := make([]EnumDecl, 0, count)
	for range count {
		var e EnumDecl
		if e.Name, err = r.string(); err != nil {
			return nil, err
		}
		if e.Values, err = r.stringTable(); err != nil {
			return nil, err
		}
		enums = append(enums, e)
	}
	return enums, nil
}
