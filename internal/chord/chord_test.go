package chord

import (
	"reflect"
	"testing"
)

func TestParseCanonical(t *testing.T) {
	spec := Parse("Ctrl + ALT + a")
	want := []string{"a", "alt", "ctrl"}
	if !reflect.DeepEqual(spec.Tokens(), want) {
		t.Errorf("Tokens() = %v, want %v", spec.Tokens(), want)
	}
}

func TestParseAliases(t *testing.T) {
	cases := map[string]string{
		"control+x": "ctrl",
		"command+c": "cmd",
		"win+d":     "cmd",
		"return+q":  "enter",
		"escape+z":  "esc",
	}
	for in, canon := range cases {
		spec := Parse(in)
		if !spec.Contains(canon) {
			t.Errorf("Parse(%q) missing canonical token %q: %v", in, canon, spec.Tokens())
		}
	}
}

func TestParseDropsUnknown(t *testing.T) {
	spec := Parse("ctrl+bogus+a")
	if spec.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (unknown token dropped): %v", spec.Len(), spec.Tokens())
	}
	if spec.Contains("bogus") {
		t.Error("unknown token must not survive parsing")
	}
}

func TestParseEmptyIsLegal(t *testing.T) {
	spec := Parse("nosuchkey+alsonot")
	if !spec.Empty() {
		t.Errorf("expected degenerate empty chord, got %v", spec.Tokens())
	}
	if spec.HeldIn(map[string]struct{}{"a": {}}) {
		t.Error("empty chord must never be held")
	}
}

func TestNormalize(t *testing.T) {
	if tok, ok := Normalize("  A "); !ok || tok != "a" {
		t.Errorf("Normalize(\"  A \") = %q, %v", tok, ok)
	}
	if tok, ok := Normalize("PageUp"); !ok || tok != "pageup" {
		t.Errorf("Normalize(\"PageUp\") = %q, %v", tok, ok)
	}
	if _, ok := Normalize(""); ok {
		t.Error("empty name must not normalize")
	}
	if _, ok := Normalize("definitely-not-a-key"); ok {
		t.Error("unknown name must not normalize")
	}
	if _, ok := Normalize(string([]byte{0xff, 0xfe})); ok {
		t.Error("invalid UTF-8 must not normalize")
	}
}

func TestHeldIn(t *testing.T) {
	spec := Parse("ctrl+alt+a")
	down := map[string]struct{}{"ctrl": {}, "alt": {}}
	if spec.HeldIn(down) {
		t.Error("chord held with a key missing")
	}
	down["a"] = struct{}{}
	down["shift"] = struct{}{} // extra keys don't matter
	if !spec.HeldIn(down) {
		t.Error("chord not held with all keys down")
	}
}
