package env

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Sentinel errors for environment pinning and package resolution.
var (
	ErrEnvMissing         = errors.New("pinned environment root does not exist")
	ErrInterpreterMissing = errors.New("interpreter not found in pinned environment")
	ErrUnresolvable       = errors.New("unresolvable dependency")
)

// defaultInterpreter is the interpreter path relative to the environment
// root when none is configured (conda/venv layout).
const defaultInterpreter = "bin/python"

// Environment pins execution to one exact interpreter installation.
// There is no fallback: if the root or interpreter is missing, Validate
// fails and the caller is expected to abort startup.
type Environment struct {
	root        string
	interpreter string
}

// New builds an Environment rooted at root. interpreter may be empty,
// in which case the conventional bin/python below root is used; a
// relative value is resolved against root.
func New(root, interpreter string) *Environment {
	if interpreter == "" {
		interpreter = defaultInterpreter
	}
	if !filepath.IsAbs(interpreter) {
		interpreter = filepath.Join(root, interpreter)
	}
	return &Environment{root: root, interpreter: interpreter}
}

// Root returns the pinned installation root.
func (e *Environment) Root() string { return e.root }

// Interpreter returns the absolute path of the pinned interpreter binary.
func (e *Environment) Interpreter() string { return e.interpreter }

// Validate checks that the pinned installation exists and carries an
// executable interpreter. This is a one-time, blocking precondition;
// callers must not proceed to any external call if it fails.
func (e *Environment) Validate() error {
	info, err := os.Stat(e.root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrEnvMissing, e.root)
	}
	fi, err := os.Stat(e.interpreter)
	if err != nil || fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrInterpreterMissing, e.interpreter)
	}
	if fi.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s is not executable", ErrInterpreterMissing, e.interpreter)
	}
	return nil
}

// Package is a handle to an importable package inside the pinned
// environment. It carries no state beyond the name; it exists so that
// resolution failures happen once, up front, rather than on first call.
type Package struct {
	Name string
	env  *Environment
}

// Env returns the environment the package was resolved in.
func (p *Package) Env() *Environment { return p.env }

// resolveSnippet probes importability of a package by name. It is the
// compile-time pinned equivalent of a dynamic import.
const resolveSnippet = "import importlib, sys\nimportlib.import_module(sys.argv[1])\n"

// Resolve probes that the named package is importable in the pinned
// environment and returns a handle to it. A probe failure is reported
// as an unresolvable-dependency error carrying the interpreter's
// stderr verbatim.
func (e *Environment) Resolve(ctx context.Context, name string) (*Package, error) {
	cmd := exec.CommandContext(ctx, e.interpreter, "-c", resolveSnippet, name)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("%w: package %q in %s: %s", ErrUnresolvable, name, e.root, detail)
	}
	return &Package{Name: name, env: e}, nil
}
