package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// --- ParsePath ---

func TestParsePath_Forms(t *testing.T) {
	cases := []struct {
		raw  string
		want ModulePath
	}{
		{"crate::a::b", ModulePath{Absolute: true, Segments: []string{"a", "b"}}},
		{"super::super::f", ModulePath{Supers: 2, Segments: []string{"f"}}},
		{"a::b", ModulePath{Segments: []string{"a", "b"}}},
		{"crate", ModulePath{Absolute: true}},
		{"", ModulePath{}},
	}
	for _, c := range cases {
		got, err := ParsePath(c.raw)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", c.raw, err)
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("ParsePath(%q) mismatch (-want +got):\n%s", c.raw, diff)
		}
	}
}

func TestParsePath_Invalid(t *testing.T) {
	for _, raw := range []string{"a::crate::b", "a::super", "a::::b"} {
		if _, err := ParsePath(raw); err == nil {
			t.Errorf("ParsePath(%q): expected error", raw)
		}
	}
}

func TestPathString_RoundTrip(t *testing.T) {
	for _, raw := range []string{"crate::a::b", "super::f", "a::b::c", "crate"} {
		p, err := ParsePath(raw)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", raw, err)
		}
		if got := p.String(); got != raw {
			t.Errorf("String() = %q, want %q", got, raw)
		}
	}
}

// --- Path arithmetic ---

func TestWrittenLen(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"crate::a::b", 3},
		{"super::super::f", 3},
		{"a::b", 2},
	}
	for _, c := range cases {
		p, _ := ParsePath(c.raw)
		if got := p.WrittenLen(); got != c.want {
			t.Errorf("WrittenLen(%q) = %d, want %d", c.raw, got, c.want)
		}
	}
}

func TestHasPrefix(t *testing.T) {
	p := AbsPath("a", "b", "c")
	if !p.HasPrefix(AbsPath("a", "b")) {
		t.Error("expected prefix a::b")
	}
	if p.HasPrefix(AbsPath("a", "x")) {
		t.Error("a::x is not a prefix")
	}
	if p.HasPrefix(ModulePath{Segments: []string{"a"}}) {
		t.Error("relative paths never prefix absolute ones")
	}
}

func TestRebase(t *testing.T) {
	p := AbsPath("mod1", "foo", "func")
	got := p.Rebase(AbsPath("mod1", "foo"), AbsPath("mod2", "foo"))
	want := AbsPath("mod2", "foo", "func")
	if !got.Equal(want) {
		t.Errorf("Rebase = %s, want %s", got, want)
	}
}

func TestRelativeFromModule(t *testing.T) {
	cases := []struct {
		target, site string
		want         string
	}{
		{"crate::mod1::f", "crate::mod2::foo", "super::super::mod1::f"},
		{"crate::mod1::f", "crate::mod1", "f"},
		{"crate::a::b", "crate::a::c", "super::b"},
	}
	for _, c := range cases {
		target, _ := ParsePath(c.target)
		site, _ := ParsePath(c.site)
		if got := RelativeFromModule(target, site).String(); got != c.want {
			t.Errorf("RelativeFromModule(%s, %s) = %s, want %s", c.target, c.site, got, c.want)
		}
	}
}

func TestParent_PanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	AbsPath().Parent()
}
