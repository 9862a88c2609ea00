package interpret

import (
	"reflect"
	"testing"
)

func TestWholeTextJSON(t *testing.T) {
	doc := Interpret(`{"speech":"hi"}`)
	if !doc.Structured {
		t.Fatal("expected structured document")
	}
	if doc.Speech != "hi" {
		t.Errorf("Speech = %q, want hi", doc.Speech)
	}
}

func TestFencedBlockWinsOverBraceScan(t *testing.T) {
	in := "prefix ```json\n{\"speech\":\"hi\"}\n``` suffix"
	doc := Interpret(in)
	if !doc.Structured || doc.Speech != "hi" {
		t.Errorf("got %+v, want structured speech hi", doc)
	}
}

func TestFencedBlockWithoutAnnotation(t *testing.T) {
	in := "here you go:\n```\n{\"speech\":\"plain fence\"}\n```"
	doc := Interpret(in)
	if !doc.Structured || doc.Speech != "plain fence" {
		t.Errorf("got %+v", doc)
	}
}

func TestBraceScanInProse(t *testing.T) {
	in := `Sure! I'll copy that for you: {"speech":"done","clipboard":"secret"} hope it helps.`
	doc := Interpret(in)
	if !doc.Structured {
		t.Fatal("expected structured document")
	}
	if doc.Clipboard != "secret" {
		t.Errorf("Clipboard = %q, want secret", doc.Clipboard)
	}
}

func TestBraceScanNestedObjects(t *testing.T) {
	// The depth scan must match the full outer object, nested braces
	// and braces inside string values included.
	in := `reply: {"speech":"ok","notes":{"title":"{x}","content":"a } b"}} end`
	doc := Interpret(in)
	if !doc.Structured {
		t.Fatal("expected structured document")
	}
	if doc.Notes == nil || doc.Notes.Content != "a } b" {
		t.Errorf("Notes = %+v", doc.Notes)
	}
	if doc.Notes.Title != "{x}" {
		t.Errorf("Title = %q", doc.Notes.Title)
	}
}

func TestInnerObjectAfterInvalidOuter(t *testing.T) {
	in := `{ not json { "speech": "inner" } }`
	doc := Interpret(in)
	if !doc.Structured || doc.Speech != "inner" {
		t.Errorf("got %+v, want inner object accepted", doc)
	}
}

func TestUnstructuredFallback(t *testing.T) {
	doc := Interpret("no json here")
	if doc.Structured {
		t.Fatal("expected unstructured document")
	}
	if doc.Speech != "no json here" {
		t.Errorf("Speech = %q", doc.Speech)
	}
	if doc.Clipboard != "" || doc.Notes != nil || doc.Macro != nil {
		t.Error("fallback document must carry only speech")
	}
}

func TestNonObjectJSONFallsBack(t *testing.T) {
	for _, in := range []string{`42`, `"just a string"`, `[1,2,3]`, `null`} {
		doc := Interpret(in)
		if doc.Structured {
			t.Errorf("Interpret(%q) treated non-object as structured", in)
		}
	}
}

func TestSchemaRejectsMistypedFields(t *testing.T) {
	// clipboard as a number is not an action document; degrade to speech.
	in := `{"clipboard": 42}`
	doc := Interpret(in)
	if doc.Structured {
		t.Error("mistyped candidate must be rejected")
	}
	if doc.Speech != in {
		t.Errorf("Speech = %q, want raw text", doc.Speech)
	}
}

func TestMissingSpeechSynthesized(t *testing.T) {
	doc := Interpret(`{"clipboard":"x"}`)
	if !doc.Structured {
		t.Fatal("expected structured document")
	}
	if doc.Speech != DefaultSpeech {
		t.Errorf("Speech = %q, want default placeholder", doc.Speech)
	}
}

func TestUnrecognizedFieldsPassThrough(t *testing.T) {
	doc := Interpret(`{"speech":"hi","plugins":["weather"],"confidence":0.9}`)
	if len(doc.Extra) != 2 {
		t.Fatalf("Extra = %v, want 2 opaque fields", doc.Extra)
	}
	if _, ok := doc.Extra["plugins"]; !ok {
		t.Error("plugins field lost")
	}
}

func TestMacroDocument(t *testing.T) {
	doc := Interpret(`{"speech":"saving","macro":{"keys":"ctrl+s","description":"save the file"}}`)
	if doc.Macro == nil || doc.Macro.Keys != "ctrl+s" {
		t.Errorf("Macro = %+v", doc.Macro)
	}
}

func TestIdempotent(t *testing.T) {
	inputs := []string{
		`{"speech":"hi"}`,
		"prefix ```json\n{\"speech\":\"hi\"}\n``` suffix",
		"no json here",
		`noise {"clipboard":"x"} noise`,
	}
	for _, in := range inputs {
		a := Interpret(in)
		b := Interpret(in)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Interpret(%q) not deterministic:\n%+v\n%+v", in, a, b)
		}
	}
}

func TestFirstParsableCandidateWins(t *testing.T) {
	in := `{broken} {"speech":"first"} {"speech":"second"}`
	doc := Interpret(in)
	if doc.Speech != "first" {
		t.Errorf("Speech = %q, want first", doc.Speech)
	}
}
