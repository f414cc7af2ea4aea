package symbols

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ResolverError means the symbol list could not be obtained. It is fatal at
// startup: without symbols there is nothing to select.
type ResolverError struct {
	Lib string
	Err error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("resolving symbols for %s: %v", e.Lib, e.Err)
}

func (e *ResolverError) Unwrap() error { return e.Err }

// ErrNoSymbols is wrapped by ResolverError when the resolver succeeds but
// reports nothing.
var ErrNoSymbols = errors.New("resolver returned no symbols")

// Resolver produces the symbol names exported by a library.
type Resolver interface {
	Resolve(ctx context.Context, lib string) ([]string, error)
}

// CommandResolver runs an external program and reads one symbol per line
// from its stdout. The library is passed as "--lib <path>" after Command.
type CommandResolver struct {
	Command []string
}

// Resolve runs the resolver command. Stderr is captured into the error on
// failure so the diagnostic reaches the user.
func (r CommandResolver) Resolve(ctx context.Context, lib string) ([]string, error) {
	if len(r.Command) == 0 {
		return nil, fmt.Errorf("no resolver command configured")
	}
	args := append(append([]string{}, r.Command[1:]...), "--lib", lib)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", r.Command[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", r.Command[0], err)
	}
	return ParseSymbolList(bytes.NewReader(out))
}

// ParseSymbolList reads newline separated names, dropping blank lines.
func ParseSymbolList(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading symbol list: %w", err)
	}
	return names, nil
}

// Load invokes the resolver once and builds the catalog. Any failure,
// including an empty result, is returned as a *ResolverError.
func Load(ctx context.Context, r Resolver, lib string) (*Catalog, error) {
	names, err := r.Resolve(ctx, lib)
	if err != nil {
		return nil, &ResolverError{Lib: lib, Err: err}
	}
	c := NewCatalog(names)
	if c.Len() == 0 {
		return nil, &ResolverError{Lib: lib, Err: ErrNoSymbols}
	}
	return c, nil
}
