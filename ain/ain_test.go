package ain

import (
	"errors"
	"testing"
)

func TestNewRecordsVersion(t *testing.T) {
	img, err := New(Version{Major: 6, Minor: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if img.Version.Major != 6 || img.Version.Minor != 2 {
		t.Errorf("version = %s, want 6.2", img.Version)
	}
	if img.Main != -1 {
		t.Errorf("fresh image Main = %d, want -1", img.Main)
	}
	if len(img.Code) != 0 || len(img.Functions) != 0 || len(img.Strings) != 0 {
		t.Error("fresh image should have no sections populated")
	}
}

func TestNewVersionRange(t *testing.T) {
	tests := []struct {
		major int
		ok    bool
	}{
		{3, false},
		{4, true},
		{14, true},
		{15, false},
		{0, false},
	}
	for _, tt := range tests {
		_, err := New(Version{Major: tt.major})
		if tt.ok && err != nil {
			t.Errorf("New(v%d) failed: %v", tt.major, err)
		}
		if !tt.ok && !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("New(v%d) error = %v, want ErrUnsupportedVersion", tt.major, err)
		}
	}
}

func TestAddFunctionReplacesByName(t *testing.T) {
	img, _ := New(Version{Major: 4})
	i := img.AddFunction(Function{Name: "f", Address: 100, Return: Int})
	j := img.AddFunction(Function{Name: "f", Return: Void})
	if i != j {
		t.Fatalf("replacement index = %d, want %d", j, i)
	}
	if len(img.Functions) != 1 {
		t.Fatalf("function count = %d, want 1", len(img.Functions))
	}
	fn := img.Functions[i]
	if fn.Return != Void {
		t.Errorf("replaced return = %v, want Void", fn.Return)
	}
	if fn.Address != 100 {
		t.Errorf("replacement dropped address: got %d, want 100", fn.Address)
	}
}

func TestAddGlobalReplacesByName(t *testing.T) {
	img, _ := New(Version{Major: 4})
	img.AddGlobal(Variable{Name: "g", Type: Int})
	img.AddGlobal(Variable{Name: "g", Type: String})
	if len(img.Globals) != 1 {
		t.Fatalf("global count = %d, want 1", len(img.Globals))
	}
	if img.Globals[0].Type != String {
		t.Errorf("later definition should win: type = %v", img.Globals[0].Type)
	}
}

func TestInternString(t *testing.T) {
	img, _ := New(Version{Major: 4})
	a := img.InternString("hello")
	b := img.InternString("world")
	c := img.InternString("hello")
	if a != c {
		t.Errorf("interning the same string twice: %d != %d", a, c)
	}
	if a == b {
		t.Errorf("distinct strings share index %d", a)
	}
}

func TestSetStringBounds(t *testing.T) {
	img, _ := New(Version{Major: 4})
	if err := img.SetString(0, "first"); err != nil {
		t.Fatalf("append at len: %v", err)
	}
	if err := img.SetString(0, "replaced"); err != nil {
		t.Fatalf("replace in range: %v", err)
	}
	if img.Strings[0] != "replaced" {
		t.Errorf("Strings[0] = %q", img.Strings[0])
	}
	if err := img.SetString(2, "gap"); err == nil {
		t.Error("SetString past the end should fail")
	}
}
