package ain

import "testing"

func noDecode(s string) (string, error) { return s, nil }

func TestResolveMemberFunctions(t *testing.T) {
	img, _ := New(Version{Major: 4})
	img.Structs = []StructDecl{
		{Name: "Point", Constructor: -1, Destructor: -1},
		{Name: "Line", Constructor: -1, Destructor: -1},
	}
	img.Functions = []Function{
		{Name: "main"},
		{Name: "Point@0"},
		{Name: "Point@1"},
		{Name: "Line@Draw"},
		{Name: "Missing@Method"},
	}

	if err := ResolveMemberFunctions(img, noDecode); err != nil {
		t.Fatalf("ResolveMemberFunctions: %v", err)
	}

	if got := img.Functions[0].StructType; got != -1 {
		t.Errorf("free function StructType = %d, want -1", got)
	}
	if got := img.Functions[1].StructType; got != 0 {
		t.Errorf("Point@0 StructType = %d, want 0", got)
	}
	if got := img.Structs[0].Constructor; got != 1 {
		t.Errorf("Point constructor = %d, want 1", got)
	}
	if got := img.Structs[0].Destructor; got != 2 {
		t.Errorf("Point destructor = %d, want 2", got)
	}
	if got := img.Functions[3].StructType; got != 1 {
		t.Errorf("Line@Draw StructType = %d, want 1", got)
	}
	if got := img.Structs[1].Constructor; got != -1 {
		t.Errorf("Line constructor = %d, want -1", got)
	}
	if got := img.Functions[4].StructType; got != -1 {
		t.Errorf("member of undeclared struct StructType = %d, want -1", got)
	}
}
