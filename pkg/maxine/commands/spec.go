// Package commands implements Maxine's command registry and dispatcher.
//
// A command is described by a Spec (name, description and a typed option
// schema) and served by a Handler. Transports (Discord interactions, prefixed
// chat messages, the local console) turn inbound events into an Invocation
// and hand it to Dispatcher.Dispatch, which resolves the handler, coerces the
// raw option values, runs the handler and guarantees that exactly one reply
// goes back to the caller, whatever the handler does.
package commands

import (
	"fmt"
	"strings"
)

// OptionKind is the type of a command option.
type OptionKind int

const (
	KindString OptionKind = iota + 1
	KindBoolean
	KindUser
	KindInteger
)

// String returns the lowercase kind name.
func (k OptionKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindUser:
		return "user"
	case KindInteger:
		return "integer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// OptionSpec declares one option of a command.
type OptionSpec struct {
	Name        string
	Kind        OptionKind
	Description string
	Required    bool

	// Greedy makes the option swallow the rest of the line when the command
	// is typed as a prefixed chat message ("!8ball will it rain today?").
	Greedy bool
}

// Spec describes a command. Specs are immutable once registered.
type Spec struct {
	// Name is the unique command identifier. A single space separates a
	// parent from a subcommand ("prompt set").
	Name string

	// Description is the one-line summary shown in the command picker.
	Description string

	// Options is the ordered option schema.
	Options []OptionSpec

	// ContextMenu, when set, exposes the command as a message context-menu
	// entry with this label. The selected message becomes Request.Target.
	ContextMenu string

	// Category groups commands in the help overview.
	Category string

	// Usage is the long help text.
	Usage string
}

// Parent returns the top-level command name ("prompt" for "prompt set").
func (s Spec) Parent() string {
	parent, _, _ := strings.Cut(s.Name, " ")
	return parent
}

// Sub returns the subcommand name, or "" for a top-level command.
func (s Spec) Sub() string {
	_, sub, _ := strings.Cut(s.Name, " ")
	return sub
}

// Option returns the option spec with the given name.
func (s Spec) Option(name string) (OptionSpec, bool) {
	for _, o := range s.Options {
		if o.Name == name {
			return o, true
		}
	}
	return OptionSpec{}, false
}

// validate checks the structural rules of a spec.
func (s Spec) validate() error {
	name := normalizeName(s.Name)
	if name == "" {
		return fmt.Errorf("commands: empty command name")
	}
	if strings.Count(name, " ") > 1 {
		return fmt.Errorf("commands: %q: at most one level of subcommands", s.Name)
	}

	seen := make(map[string]bool, len(s.Options))
	optional := false
	for _, o := range s.Options {
		if o.Name == "" {
			return fmt.Errorf("commands: %q: option with empty name", s.Name)
		}
		if seen[o.Name] {
			return fmt.Errorf("commands: %q: duplicate option %q", s.Name, o.Name)
		}
		seen[o.Name] = true
		if o.Kind < KindString || o.Kind > KindInteger {
			return fmt.Errorf("commands: %q: option %q has unknown kind", s.Name, o.Name)
		}
		if o.Required && optional {
			return fmt.Errorf("commands: %q: required option %q follows an optional one", s.Name, o.Name)
		}
		if !o.Required {
			optional = true
		}
	}
	return nil
}

// normalizeName lowercases and collapses whitespace in a command name.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
