package ain

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Magic identifies a container file.
var Magic = [4]byte{'A', 'I', 'N', '0'}

// Section tags, in the fixed order the writer emits them. Every
// section is always written, empty or not, so serialization is
// deterministic and open-then-write reproduces a container
// byte-for-byte.
var (
	sectionCode   = [4]byte{'C', 'O', 'D', 'E'}
	sectionFunc   = [4]byte{'F', 'U', 'N', 'C'}
	sectionGlob   = [4]byte{'G', 'L', 'O', 'B'}
	sectionStr    = [4]byte{'S', 'T', 'R', '0'}
	sectionMsg    = [4]byte{'M', 'S', 'G', '0'}
	sectionStruct = [4]byte{'S', 'T', 'R', 'T'}
	sectionEnum   = [4]byte{'E', 'N', 'U', 'M'}
	sectionMain   = [4]byte{'M', 'A', 'I', 'N'}
)

// headerSize is magic(4) + major(4) + minor(4).
const headerSize = 12

// Write serializes the image to a file at path.
func Write(path string, img *Image) error {
	var buf bytes.Buffer
	if err := img.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write container: %w", err)
	}
	return nil
}

// Encode serializes the image to w.
func (img *Image) Encode(w io.Writer) error {
	header := make([]byte, 0, headerSize)
	header = append(header, Magic[:]...)
	header = appendUint32(header, uint32(img.Version.Major))
	header = appendUint32(header, uint32(img.Version.Minor))
	if _, err := w.Write(header); err != nil {
		return err
	}

	sections := []struct {
		tag     [4]byte
		payload []byte
	}{
		{sectionCode, img.Code},
		{sectionFunc, encodeFunctions(img.Functions)},
		{sectionGlob, encodeVariables(img.Globals)},
		{sectionStr, encodeStringTable(img.Strings)},
		{sectionMsg, encodeStringTable(img.Messages)},
		{sectionStruct, encodeStructs(img.Structs)},
		{sectionEnum, encodeEnums(img.Enums)},
		{sectionMain, appendInt32(nil, img.Main)},
	}

	for _, s := range sections {
		head := make([]byte, 0, 8)
		head = append(head, s.tag[:]...)
		head = appendUint32(head, uint32(len(s.payload)))
		if _, err := w.Write(head); err != nil {
			return err
		}
		if len(s.payload) > 0 {
			if _, err := w.Write(s.payload); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeVariables(vars []Variable) []byte {
	buf := appendUint32(nil, uint32(len(vars)))
	for _, v := range vars {
		buf = appendString(buf, v.Name)
		buf = appendInt32(buf, int32(v.Type))
	}
	return buf
}

func encodeFunctions(fns []Function) []byte {
	buf := appendUint32(nil, uint32(len(fns)))
	for _, fn := range fns {
		buf = appendString(buf, fn.Name)
		buf = appendUint32(buf, fn.Address)
		buf = appendInt32(buf, int32(fn.Return))
		buf = appendInt32(buf, fn.StructType)
		buf = append(buf, encodeVariables(fn.Params)...)
		buf = append(buf, encodeVariables(fn.Vars)...)
	}
	return buf
}

func encodeStringTable(table []string) []byte {
	buf := appendUint32(nil, uint32(len(table)))
	for _, s := range table {
		buf = appendString(buf, s)
	}
	return buf
}

func encodeStructs(structs []StructDecl) []byte {
	buf := appendUint32(nil, uint32(len(structs)))
	for _, s := range structs {
		buf = appendString(buf, s.Name)
		buf = appendInt32(buf, s.Constructor)
		buf = appendInt32(buf, s.Destructor)
		buf = append(buf, encodeVariables(s.Members)...)
	}
	return buf
}

func encodeEnums(enums []EnumDecl) []byte {
	buf := appendUint32(nil, uint32(len(enums)))
	for _, e := range enums {
		buf = appendString(buf, e.Name)
		buf = append(buf, encodeStringTable(e.Values)...)
	}
	return buf
}
