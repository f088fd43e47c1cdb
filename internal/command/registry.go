// Package command holds the session's command table and the dispatcher that
// routes each submitted line either to a pending continuation or to a
// registered handler.
package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDuplicateCommand is returned by Register when the canonical name is taken.
var ErrDuplicateCommand = errors.New("command already registered")

// ErrInvalidCommand is returned by Register for a spec without a name or handler.
var ErrInvalidCommand = errors.New("invalid command spec")

// Handler executes a command with its argument words (the command word itself
// is not included). A returned error is reported to the user; it never ends
// the session.
type Handler func(args []string) error

// Spec describes one invocable command.
type Spec struct {
	// Name is the canonical lookup key, e.g. "dir".
	Name string
	// Aliases are alternative words, e.g. "ls". They may overlap with another
	// command's aliases; the earlier registration wins.
	Aliases []string
	// Description is the one-line text shown by help.
	Description string
	// Usage shows argument syntax, e.g. "cd [path|-|--|---]".
	Usage   string
	Handler Handler
}

// UnknownCommandError reports a command word that matched nothing.
type UnknownCommandError struct {
	Word string
}

func (e *UnknownCommandError) Error() string {
	return "unknown command: " + e.Word
}

// Registry maps canonical names and aliases to command specs. Registration
// order is kept because alias ambiguity is resolved by it.
type Registry struct {
	byName map[string]*Spec
	order  []*Spec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Spec)}
}

// Register adds spec. It fails if the canonical name is already registered.
func (r *Registry) Register(spec Spec) error {
	name := strings.ToLower(strings.TrimSpace(spec.Name))
	if name == "" || spec.Handler == nil {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, spec.Name)
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}

	aliases := make([]string, 0, len(spec.Aliases))
	for _, a := range spec.Aliases {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			aliases = append(aliases, a)
		}
	}
	s := &Spec{
		Name:        name,
		Aliases:     aliases,
		Description: spec.Description,
		Usage:       spec.Usage,
		Handler:     spec.Handler,
	}
	r.byName[name] = s
	r.order = append(r.order, s)
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(spec Spec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Lookup resolves word by canonical name first, then by alias in registration
// order. Matching is case-insensitive.
func (r *Registry) Lookup(word string) (*Spec, bool) {
	w := strings.ToLower(word)
	if s, ok := r.byName[w]; ok {
		return s, true
	}
	for _, s := range r.order {
		for _, a := range s.Aliases {
			if a == w {
				return s, true
			}
		}
	}
	return nil, false
}

// Resolve is Lookup returning an *UnknownCommandError when nothing matches.
func (r *Registry) Resolve(word string) (*Spec, error) {
	if s, ok := r.Lookup(word); ok {
		return s, nil
	}
	return nil, &UnknownCommandError{Word: word}
}

// All returns the specs in registration order.
func (r *Registry) All() []*Spec {
	out := make([]*Spec, len(r.order))
	copy(out, r.order)
	return out
}

// Sorted returns the specs ordered by canonical name.
func (r *Registry) Sorted() []*Spec {
	out := r.All()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports the number of registered commands.
func (r *Registry) Len() int { return len(r.order) }
