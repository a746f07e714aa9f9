// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package namer generates collision-free, keyword-safe identifiers for a
// generated source file. It is target-language agnostic: a caller supplies
// a reserved-word predicate and any reserved name prefixes, and the namer
// handles escaping and numeric-suffix collision resolution on top of that.
//
// It generalizes the per-backend namer the naga-derived backends each used
// to hand-roll (HLSL's case-insensitive variant among them) into a single
// reusable collaborator.
package namer

import (
	"fmt"
	"strings"
)

// UnnamedIdentifier is the name substituted for an empty base name.
const UnnamedIdentifier = "_unnamed"

// IsReserved reports whether name is a reserved word or has a reserved
// prefix in the target language. Callers configure a Namer with one of
// these per target (GLSL's reserves keywords and the "gl_" prefix).
type IsReserved func(name string) bool

// Namer generates unique, escaped identifiers.
type Namer struct {
	reserved IsReserved
	// caseInsensitive makes uniqueness checks fold case, matching targets
	// (like HLSL) whose identifiers are not case-sensitive. GLSL usage
	// leaves this false.
	caseInsensitive bool

	used    map[string]struct{}
	counter uint32
}

// New creates a Namer using reserved to test both keywords and reserved
// prefixes. Pass caseInsensitive=true only for targets whose identifiers
// are case-folded.
func New(reserved IsReserved, caseInsensitive bool) *Namer {
	return &Namer{
		reserved:        reserved,
		caseInsensitive: caseInsensitive,
		used:            make(map[string]struct{}),
	}
}

func (n *Namer) key(name string) string {
	if n.caseInsensitive {
		return strings.ToLower(name)
	}
	return name
}

// Escape returns name unchanged unless it is empty or reserved, in which
// case it is prefixed with an underscore.
func (n *Namer) Escape(name string) string {
	if name == "" {
		return UnnamedIdentifier
	}
	if n.reserved(name) {
		return "_" + name
	}
	return name
}

// Call generates a unique identifier from base: it escapes reserved words,
// then appends a numeric suffix until the result is unused.
func (n *Namer) Call(base string) string {
	escaped := n.Escape(base)
	if !n.IsUsed(escaped) {
		n.used[n.key(escaped)] = struct{}{}
		return escaped
	}
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", escaped, n.counter)
		if !n.IsUsed(candidate) {
			n.used[n.key(candidate)] = struct{}{}
			return candidate
		}
	}
}

// CallWithPrefix generates a unique identifier from prefix+base, escaping
// and resolving collisions the same way Call does. Used for
// backend-synthesized helper and temporary names that need a recognizable
// prefix (e.g. "_e" for baked expressions, "_s" for struct locals).
func (n *Namer) CallWithPrefix(prefix, base string) string {
	return n.Call(prefix + base)
}

// IsUsed reports whether name has already been produced by this Namer.
func (n *Namer) IsUsed(name string) bool {
	_, ok := n.used[n.key(name)]
	return ok
}

// Reserve marks name as used without returning it, for names assigned by
// a caller outside the normal Call path (e.g. "main", which every GLSL
// entry point is named regardless of its IR name).
func (n *Namer) Reserve(name string) {
	n.used[n.key(name)] = struct{}{}
}

// Count returns the number of unique names this Namer has produced or had
// reserved.
func (n *Namer) Count() int {
	return len(n.used)
}

// Reset clears all tracked names, for reuse across independent writes
// (primarily useful in tests).
func (n *Namer) Reset() {
	n.used = make(map[string]struct{})
	n.counter = 0
}
