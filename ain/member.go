package ain

import (
	"fmt"
	"strings"
)

// Member-function names have the form "Struct@Method" in the function
// table. Method slots "0" and "1" are the constructor and destructor.
const (
	constructorSlot = "0"
	destructorSlot  = "1"
)

// ResolveMemberFunctions binds member functions to their structs.
// Function names are container-encoded; decode converts one to UTF-8
// so it can be split and matched against (equally decoded) struct
// names. This fix-up must run after a container is created or opened,
// before any edit or transcode, because those steps assume resolved
// bindings. A nil decode matches encoded names as-is.
func ResolveMemberFunctions(img *Image, decode func(string) (string, error)) error {
	if decode == nil {
		decode = func(s string) (string, error) { return s, nil }
	}
	structIndex := make(map[string]int, len(img.Structs))
	for i, s := range img.Structs {
		name, err := decode(s.Name)
		if err != nil {
			return fmt.Errorf("decode struct name %q: %w", s.Name, err)
		}
		structIndex[name] = i
	}

	for i := range img.Functions {
		fn := &img.Functions[i]
		name, err := decode(fn.Name)
		if err != nil {
			return fmt.Errorf("decode function name %q: %w", fn.Name, err)
		}
		structName, method, ok := strings.Cut(name, "@")
		if !ok {
			fn.StructType = -1
			continue
		}
		si, ok := structIndex[structName]
		if !ok {
			// A member function without its struct declaration; leave
			// it free so a later declaration edit can supply the
			// struct and a re-resolve can bind it.
			fn.StructType = -1
			continue
		}
		fn.StructType = int32(si)
		switch method {
		case constructorSlot:
			img.Structs[si].Constructor = int32(i)
		case destructorSlot:
			img.Structs[si].Destructor = int32(i)
		}
	}
	return nil
}
