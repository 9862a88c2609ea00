// Package chord parses hotkey chord strings and normalizes key names.
//
// A chord is a set of keys that must be held simultaneously, written as
// "ctrl+alt+a". The same key vocabulary is shared by the event tracker
// (normalizing incoming raw keys) and the macro runner (resolving keys to
// inject), so "ctrl" always means the same token everywhere.
package chord

import (
	"sort"
	"strings"
	"unicode/utf8"

	"askd/internal/logging"
)

// namedKeys maps multi-character key names (and their aliases) to
// canonical tokens. Single-character tokens are taken literally and
// never consult this table.
var namedKeys = map[string]string{
	"ctrl":      "ctrl",
	"control":   "ctrl",
	"alt":       "alt",
	"option":    "alt",
	"shift":     "shift",
	"cmd":       "cmd",
	"command":   "cmd",
	"meta":      "cmd",
	"win":       "cmd",
	"super":     "cmd",
	"tab":       "tab",
	"space":     "space",
	"enter":     "enter",
	"return":    "enter",
	"backspace": "backspace",
	"delete":    "delete",
	"del":       "delete",
	"insert":    "insert",
	"esc":       "esc",
	"escape":    "esc",
	"home":      "home",
	"end":       "end",
	"pageup":    "pageup",
	"pagedown":  "pagedown",
	"up":        "up",
	"down":      "down",
	"left":      "left",
	"right":     "right",
	"f1":        "f1",
	"f2":        "f2",
	"f3":        "f3",
	"f4":        "f4",
	"f5":        "f5",
	"f6":        "f6",
	"f7":        "f7",
	"f8":        "f8",
	"f9":        "f9",
	"f10":       "f10",
	"f11":       "f11",
	"f12":       "f12",
}

// Normalize converts a raw key name to its canonical token.
// Single characters are literal; multi-character names are looked up in
// the named key table. ok is false when the name is empty, not valid
// UTF-8, or an unknown multi-character name.
func Normalize(raw string) (token string, ok bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || !utf8.ValidString(s) {
		return "", false
	}
	if utf8.RuneCountInString(s) == 1 {
		return s, true
	}
	if canon, found := namedKeys[s]; found {
		return canon, true
	}
	return "", false
}

// Spec is an immutable set of canonical key tokens parsed from a chord
// configuration string. Order is irrelevant; a key appears at most once.
type Spec struct {
	raw    string
	tokens map[string]struct{}
}

// Parse builds a Spec from a configuration string such as "ctrl+alt+a".
// Tokens are '+'-separated, case-insensitive, and whitespace-trimmed.
// Unknown names are dropped with a warning; parsing never fails. A spec
// with zero valid tokens is legal but can never activate.
func Parse(s string) Spec {
	log := logging.Default().WithComponent("chord")
	tokens := make(map[string]struct{})
	for _, part := range strings.Split(s, "+") {
		tok, ok := Normalize(part)
		if !ok {
			if strings.TrimSpace(part) != "" {
				log.Warn("unknown key in chord, ignoring", "key", strings.TrimSpace(part))
			}
			continue
		}
		tokens[tok] = struct{}{}
	}
	if len(tokens) == 0 {
		log.Warn("chord has no valid keys and can never activate", "chord", s)
	}
	return Spec{raw: s, tokens: tokens}
}

// String returns the original configuration string.
func (s Spec) String() string { return s.raw }

// Len returns the number of distinct keys in the chord.
func (s Spec) Len() int { return len(s.tokens) }

// Empty reports whether the chord has no valid keys.
func (s Spec) Empty() bool { return len(s.tokens) == 0 }

// Contains reports whether token is part of the chord.
func (s Spec) Contains(token string) bool {
	_, ok := s.tokens[token]
	return ok
}

// Tokens returns the chord's canonical tokens in sorted order.
func (s Spec) Tokens() []string {
	out := make([]string, 0, len(s.tokens))
	for tok := range s.tokens {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// HeldIn reports whether every chord key is present in down. An empty
// chord is never considered held.
func (s Spec) HeldIn(down map[string]struct{}) bool {
	if len(s.tokens) == 0 {
		return false
	}
	for tok := range s.tokens {
		if _, ok := down[tok]; !ok {
			return false
		}
	}
	return true
}
