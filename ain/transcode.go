package ain

import (
	"fmt"

	"github.com/ainkit/ainkit/codec"
)

// Transcode rewrites every text-bearing field of the image from the
// converter's source encoding to its target encoding. Non-text
// sections (code, addresses, type tags) are untouched. Characters
// with no target representation are substituted, not fatal; an error
// here means existing container text was invalid in the source
// encoding.
func Transcode(img *Image, conv *codec.Converter) error {
	convert := func(what string, s *string) error {
		out, err := conv.Convert(*s)
		if err != nil {
			return fmt.Errorf("transcode %s %q: %w", what, *s, err)
		}
		*s = out
		return nil
	}
	convertVars := func(what string, vars []Variable) error {
		for i := range vars {
			if err := convert(what, &vars[i].Name); err != nil {
				return err
			}
		}
		return nil
	}

	for i := range img.Functions {
		fn := &img.Functions[i]
		if err := convert("function name", &fn.Name); err != nil {
			return err
		}
		if err := convertVars("parameter", fn.Params); err != nil {
			return err
		}
		if err := convertVars("local", fn.Vars); err != nil {
			return err
		}
	}
	if err := convertVars("global", img.Globals); err != nil {
		return err
	}
	for i := range img.Strings {
		if err := convert("string", &img.Strings[i]); err != nil {
			return err
		}
	}
	for i := range img.Messages {
		if err := convert("message", &img.Messages[i]); err != nil {
			return err
		}
	}
	for i := range img.Structs {
		s := &img.Structs[i]
		if err := convert("struct name", &s.Name); err != nil {
			return err
		}
		if err := convertVars("member", s.Members); err != nil {
			return err
		}
	}
	for i := range img.Enums {
		e := &img.Enums[i]
		if err := convert("enum name", &e.Name); err != nil {
			return err
		}
		for j := range e.Values {
			if err := convert("enum value", &e.Values[j]); err != nil {
				return err
			}
		}
	}
	return nil
}
