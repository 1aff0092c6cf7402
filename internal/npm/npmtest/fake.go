// Package npmtest provides an in-memory npm.Runner for tests.
package npmtest

import (
	"context"
	"strings"
	"sync"
)

// Handler answers a single fake npm invocation.
type Handler func(ctx context.Context, args []string) ([]byte, error)

// Runner records every invocation and delegates to Handler.
// A nil Handler succeeds with empty output.
type Runner struct {
	Handler Handler

	mu    sync.Mutex
	calls [][]string
}

// Run implements npm.Runner.
func (r *Runner) Run(ctx context.Context, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), args...))
	handler := r.Handler
	r.mu.Unlock()

	if handler == nil {
		return nil, nil
	}
	return handler(ctx, args)
}

// Calls returns a copy of all recorded invocations.
func (r *Runner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsTo returns the invocations whose first argument is subcommand.
func (r *Runner) CallsTo(subcommand string) [][]string {
	var out [][]string
	for _, c := range r.Calls() {
		if len(c) > 0 && c[0] == subcommand {
			out = append(out, c)
		}
	}
	return out
}

// Registry is a fake package registry keyed by name@version.
// It answers `npm view` and records `npm publish` by reading the
// archive name back through Decode.
type Registry struct {
	mu        sync.Mutex
	published map[string]bool
}

// NewRegistry returns a registry that already holds keys.
func NewRegistry(keys ...string) *Registry {
	reg := &Registry{published: make(map[string]bool)}
	for _, k := range keys {
		reg.published[k] = true
	}
	return reg
}

// Has reports whether key is published.
func (reg *Registry) Has(key string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.published[key]
}

// Add marks key as published.
func (reg *Registry) Add(key string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.published[key] = true
}

// Handler returns a Handler serving view and publish. decode maps an
// archive path to its name@version key; publish of an undecodable path fails.
func (reg *Registry) Handler(decode func(path string) (string, bool)) Handler {
	return func(ctx context.Context, args []string) ([]byte, error) {
		if len(args) == 0 {
			return nil, nil
		}
		switch args[0] {
		case "view":
			if len(args) > 1 && reg.Has(args[1]) {
				key := args[1]
				return []byte(key[strings.LastIndex(key, "@")+1:] + "\n"), nil
			}
			return nil, errNotFound
		case "publish":
			if len(args) < 2 {
				return nil, errNotFound
			}
			key, ok := decode(args[1])
			if !ok {
				return nil, errNotFound
			}
			reg.Add(key)
		}
		return nil, nil
	}
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const errNotFound = fakeError("npm ERR! code E404")
