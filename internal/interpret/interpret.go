// Package interpret recovers structured intent from a model's free-form
// reply.
//
// Model output is messy: sometimes clean JSON, sometimes JSON fenced in a
// markdown code block, sometimes JSON buried in prose, often no JSON at
// all. Interpret tries extraction strategies in a strict priority order
// and degrades to plain speech when none succeed. It is a pure function
// of its input and never fails.
package interpret

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"askd/internal/logging"
)

// DefaultSpeech is vocalized when a structured reply carries no speech
// field, so downstream always has something to say.
const DefaultSpeech = "I've processed your request but don't have anything specific to say."

// Note is the notes action payload.
type Note struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// Macro is the keyboard macro action payload.
type Macro struct {
	Keys        string `json:"keys"`
	Description string `json:"description,omitempty"`
}

// Document is the structured intent recovered from a reply. Recognized
// fields are typed; anything else the model included survives opaquely
// in Extra. A Document is never mutated after Interpret returns it.
type Document struct {
	Speech    string
	Clipboard string
	Notes     *Note
	Macro     *Macro

	// Extra holds unrecognized top-level fields, passed through opaquely.
	Extra map[string]json.RawMessage

	// Structured reports whether a JSON candidate was accepted, as
	// opposed to the whole-text speech fallback.
	Structured bool

	// Raw is the original reply text.
	Raw string
}

// actionSchema validates the recognized fields of a candidate object.
// Unrecognized fields are explicitly allowed; they pass through in Extra.
const actionSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"speech":    {"type": "string"},
		"clipboard": {"type": "string"},
		"notes": {
			"type": "object",
			"properties": {
				"title":   {"type": "string"},
				"content": {"type": "string"}
			},
			"required": ["content"]
		},
		"macro": {
			"type": "object",
			"properties": {
				"keys":        {"type": "string"},
				"description": {"type": "string"}
			},
			"required": ["keys"]
		}
	}
}`

var schema = jsonschema.MustCompileString("action_document.json", actionSchema)

// Interpret recovers a Document from raw model output. Strategies, in
// order, first acceptable candidate wins:
//
//  1. the entire text as JSON
//  2. fenced code blocks, in order of appearance
//  3. brace-delimited substrings found by a depth scan, in order
//  4. fallback: the whole text as unstructured speech
//
// A candidate is accepted only if it is a JSON object whose recognized
// fields conform to the action document schema; a rejected candidate
// does not stop the scan.
func Interpret(raw string) Document {
	if doc, ok := decode(raw); ok {
		return finish(doc, raw)
	}
	for _, block := range fencedBlocks(raw) {
		if doc, ok := decode(block); ok {
			return finish(doc, raw)
		}
	}
	for _, candidate := range braceCandidates(raw) {
		if doc, ok := decode(candidate); ok {
			return finish(doc, raw)
		}
	}

	logging.Default().WithComponent("interpret").
		Debug("no structured content found, treating reply as speech")
	return Document{Speech: raw, Raw: raw}
}

// finish applies post-parse defaults.
func finish(doc Document, raw string) Document {
	doc.Raw = raw
	doc.Structured = true
	if doc.Speech == "" {
		doc.Speech = DefaultSpeech
	}
	return doc
}

// decode attempts to turn one candidate string into a Document.
func decode(candidate string) (Document, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || candidate[0] != '{' {
		return Document{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return Document{}, false
	}

	var generic any
	if err := json.Unmarshal([]byte(candidate), &generic); err != nil {
		return Document{}, false
	}
	if err := schema.Validate(generic); err != nil {
		return Document{}, false
	}

	var doc Document
	extra := make(map[string]json.RawMessage)
	for key, val := range fields {
		switch key {
		case "speech":
			_ = json.Unmarshal(val, &doc.Speech)
		case "clipboard":
			_ = json.Unmarshal(val, &doc.Clipboard)
		case "notes":
			var n Note
			if err := json.Unmarshal(val, &n); err == nil {
				doc.Notes = &n
			}
		case "macro":
			var m Macro
			if err := json.Unmarshal(val, &m); err == nil {
				doc.Macro = &m
			}
		default:
			extra[key] = val
		}
	}
	if len(extra) > 0 {
		doc.Extra = extra
	}
	return doc, true
}

// fencedBlocks returns the contents of triple-backtick code blocks in
// order of appearance, with an optional language annotation line
// ("json") stripped.
func fencedBlocks(s string) []string {
	var blocks []string
	for {
		start := strings.Index(s, "```")
		if start < 0 {
			break
		}
		rest := s[start+3:]
		end := strings.Index(rest, "```")
		if end < 0 {
			break
		}
		block := rest[:end]
		s = rest[end+3:]

		if nl := strings.IndexByte(block, '\n'); nl >= 0 {
			tag := strings.TrimSpace(block[:nl])
			if tag == "" || strings.EqualFold(tag, "json") {
				block = block[nl+1:]
			}
		}
		blocks = append(blocks, strings.TrimSpace(block))
	}
	return blocks
}

// braceCandidates returns balanced brace-delimited substrings in order
// of their opening brace. The scan tracks JSON string and escape state
// so braces inside string literals don't confuse the depth count.
func braceCandidates(s string) []string {
	var out []string
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		if end, ok := matchBrace(s, i); ok {
			out = append(out, s[i:end+1])
			// Continue from the next character, not past the whole
			// candidate: a failed outer object may contain a valid
			// inner one.
		}
	}
	return out
}

// matchBrace finds the closing brace matching the opener at start.
func matchBrace(s string, start int) (end int, ok bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
