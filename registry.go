// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Configuration errors reported while resolving counter specifications.
var (
	ErrUnknownCounter = errors.New("perfbench: unknown counter")
	ErrEmptySpec      = errors.New("perfbench: empty counter specification")
)

// A Registry maps counter family names to CounterTypes.
//
// The zero value is an empty registry, ready to use.
type Registry struct {
	mu    sync.Mutex
	types map[string]CounterType
}

// DefaultRegistry holds the built-in counter families. Suites use it
// unless Config.Registry says otherwise.
var DefaultRegistry = new(Registry)

// Register adds ct to the registry. It is an error to register an empty
// name, a nil Create function, or a name which is already registered.
func (r *Registry) Register(ct CounterType) error {
	if ct.Name == "" {
		return errors.New("perfbench: counter type with empty name")
	}
	if strings.ContainsAny(ct.Name, ":,") {
		return errors.Errorf("perfbench: invalid counter type name %q", ct.Name)
	}
	if ct.Create == nil {
		return errors.Errorf("perfbench: counter type %q has no Create function", ct.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.types == nil {
		r.types = make(map[string]CounterType)
	}
	if _, ok := r.types[ct.Name]; ok {
		return errors.Errorf("perfbench: counter type %q already registered", ct.Name)
	}
	r.types[ct.Name] = ct
	return nil
}

// MustRegister is like Register, but panics on error. It is meant for
// init functions.
func (r *Registry) MustRegister(ct CounterType) {
	if err := r.Register(ct); err != nil {
		panic(err)
	}
}

// Families returns the sorted names of all registered counter families.
func (r *Registry) Families() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a specification token to a registered CounterType.
//
// The family (the text before the first colon) is matched exactly first.
// Failing that, the longest registered name which is a prefix of the
// token wins.
func (r *Registry) Lookup(spec string) (CounterType, bool) {
	family := spec
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		family = spec[:i]
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ct, ok := r.types[family]; ok {
		return ct, true
	}
	var (
		best  CounterType
		found bool
	)
	for name, ct := range r.types {
		if strings.HasPrefix(spec, name) && len(name) > len(best.Name) {
			best, found = ct, true
		}
	}
	return best, found
}

// ParseSpec splits a comma separated counter specification into tokens.
// Surrounding whitespace is ignored. An empty specification, or one with
// an empty token, is an error.
func ParseSpec(spec string) ([]string, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, ErrEmptySpec
	}
	parts := strings.Split(spec, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, errors.Wrapf(ErrEmptySpec, "in %q", spec)
		}
		tokens = append(tokens, p)
	}
	return tokens, nil
}

// Open resolves and creates a counter for every token, in order. If any
// token fails to resolve or create, the counters created so far are
// closed and an error naming the token is returned.
func (r *Registry) Open(tokens []string) (*CounterSet, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptySpec
	}
	set := &CounterSet{}
	for _, tok := range tokens {
		ct, ok := r.Lookup(tok)
		if !ok {
			set.Close()
			return nil, errors.Wrapf(ErrUnknownCounter, "%q", tok)
		}
		c, err := ct.Create(tok)
		if err != nil {
			set.Close()
			return nil, errors.Wrapf(err, "perfbench: creating counter %q", tok)
		}
		set.counters = append(set.counters, &SelectedCounter{Name: tok, Counter: c})
	}
	return set, nil
}

// A SelectedCounter is a Counter created from one specification token.
type SelectedCounter struct {
	// Name is the specification token the counter was created from,
	// and the name results are reported under.
	Name string

	Counter
}

// activate arms the counter, if it needs arming.
func (sc *SelectedCounter) activate() error {
	if a, ok := sc.Counter.(Activator); ok {
		return errors.Wrapf(a.Activate(), "perfbench: activating counter %q", sc.Name)
	}
	return nil
}

// deactivate disarms the counter, if it can be disarmed.
func (sc *SelectedCounter) deactivate() error {
	if d, ok := sc.Counter.(Deactivator); ok {
		return errors.Wrapf(d.Deactivate(), "perfbench: deactivating counter %q", sc.Name)
	}
	return nil
}

// A CounterSet is the ordered list of counters one suite execution uses.
type CounterSet struct {
	counters []*SelectedCounter
}

// Counters returns the counters in the set, in specification order.
func (s *CounterSet) Counters() []*SelectedCounter {
	return s.counters
}

// Close releases every counter in the set which implements io.Closer.
// It returns the first error encountered, after attempting to close
// all counters.
func (s *CounterSet) Close() error {
	var first error
	for _, sc := range s.counters {
		c, ok := sc.Counter.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "perfbench: closing counter %q", sc.Name)
		}
	}
	s.counters = nil
	return first
}
