// aindump inspects AIN containers: header summary by default, with
// flags selecting code, table, and declaration dumps. Container text
// is decoded to UTF-8 for display.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ainkit/ainkit/ain"
	"github.com/ainkit/ainkit/asm"
	"github.com/ainkit/ainkit/codec"
)

func main() {
	dumpCode := flag.Bool("code", false, "disassemble the code section")
	dumpStrings := flag.Bool("strings", false, "dump the string table")
	dumpMessages := flag.Bool("messages", false, "dump the message table")
	dumpFunctions := flag.Bool("functions", false, "dump the function table")
	dumpGlobals := flag.Bool("globals", false, "dump the globals")
	dumpTypes := flag.Bool("types", false, "dump struct and enum declarations")
	encodingArg := flag.String("encoding", codec.DefaultContainerEncoding, "container text `encoding`")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: aindump [options] file.ain\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	decode, err := codec.Decoder(*encodingArg)
	if err != nil {
		fatal(err)
	}
	img, err := ain.Open(path)
	if err != nil {
		fatal(err)
	}
	if err := ain.ResolveMemberFunctions(img, decode); err != nil {
		fatal(err)
	}

	fmt.Printf("%s: version %d.%d\n", path, img.Version.Major, img.Version.Minor)
	fmt.Printf("  code      %d bytes\n", len(img.Code))
	fmt.Printf("  functions %d\n", len(img.Functions))
	fmt.Printf("  globals   %d\n", len(img.Globals))
	fmt.Printf("  strings   %d\n", len(img.Strings))
	fmt.Printf("  messages  %d\n", len(img.Messages))
	fmt.Printf("  structs   %d\n", len(img.Structs))
	fmt.Printf("  enums     %d\n", len(img.Enums))

	if *dumpCode {
		listing, err := asm.Disassemble(img, decode)
		if err != nil {
			fatal(err)
		}
		fmt.Println("\nCODE:")
		fmt.Print(listing)
	}
	if *dumpStrings {
		fmt.Println("\nSTRINGS:")
		dumpTable(img.Strings, 's', decode)
	}
	if *dumpMessages {
		fmt.Println("\nMESSAGES:")
		dumpTable(img.Messages, 'm', decode)
	}
	if *dumpFunctions {
		fmt.Println("\nFUNCTIONS:")
		for i, fn := range img.Functions {
			fmt.Printf("  [%d] %s @ 0x%08X %s\n", i, display(fn.Name, decode), fn.Address, signature(fn, decode))
		}
	}
	if *dumpGlobals {
		fmt.Println("\nGLOBALS:")
		for i, g := range img.Globals {
			fmt.Printf("  [%d] %s %s\n", i, g.Type, display(g.Name, decode))
		}
	}
	if *dumpTypes {
		fmt.Println("\nSTRUCTS:")
		for i, s := range img.Structs {
			fmt.Printf("  [%d] %s (%d members)\n", i, display(s.Name, decode), len(s.Members))
			for _, m := range s.Members {
				fmt.Printf("      %s %s\n", m.Type, display(m.Name, decode))
			}
		}
		fmt.Println("\nENUMS:")
		for i, e := range img.Enums {
			fmt.Printf("  [%d] %s\n", i, display(e.Name, decode))
			for j, v := range e.Values {
				fmt.Printf("      %d = %s\n", j, display(v, decode))
			}
		}
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "aindump: %v\n", err)
	os.Exit(1)
}

func dumpTable(table []string, tag byte, decode func(string) (string, error)) {
	for i, s := range table {
		fmt.Printf("  %c[%d] = %q\n", tag, i, display(s, decode))
	}
}

// display decodes container text for output, falling back to the raw
// bytes when they do not decode.
func display(s string, decode func(string) (string, error)) string {
	if decode == nil {
		return s
	}
	decoded, err := decode(s)
	if err != nil {
		return s
	}
	return decoded
}

// signature renders a function's parameter list.
func signature(fn ain.Function, decode func(string) (string, error)) string {
	out := "("
	for i, p := range fn.Params {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s %s", p.Type, display(p.Name, decode))
	}
	return out + ") " + fn.Return.String()
}
