// Package symbol locates the genuine implementations of interposed functions.
//
// A preloaded library that defines connect(2) hides the libc connect from
// the dynamic loader's default search. Each [Symbol] asks the next object in
// the search order for its name, at most once, and caches the answer for
// the life of the process.
package symbol

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
)

// ErrNotFound is returned when a symbol has no genuine implementation.
var ErrNotFound = errors.New("symbol not found")

// Lookup returns the address of the genuine implementation of name.
type Lookup func(name string) (unsafe.Pointer, error)

// Symbol is a lazily resolved function address.
type Symbol struct {
	name    string
	resolve func() (unsafe.Pointer, error)
}

// New returns a Symbol resolved through lookup on first use. A failed
// resolution is logged once at error level and cached like a success.
func New(name string, lookup Lookup, logger *log.Logger) *Symbol {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Symbol{
		name: name,
		resolve: sync.OnceValues(func() (unsafe.Pointer, error) {
			addr, err := lookup(name)
			if err == nil && addr == nil {
				err = fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			if err != nil {
				logger.Error("symbolNotFound", zap.String("fn", name), zap.Error(err))
				return nil, err
			}
			logger.Debug("symbolResolved", zap.String("fn", name), zap.Uintptr("addr", uintptr(addr)))
			return addr, nil
		}),
	}
}

// Name returns the symbol name.
func (s *Symbol) Name() string {
	return s.name
}

// Resolve returns the genuine address, resolving it on the first call.
func (s *Symbol) Resolve() (unsafe.Pointer, error) {
	return s.resolve()
}

// Get returns the genuine address, or nil if resolution failed.
func (s *Symbol) Get() unsafe.Pointer {
	addr, _ := s.resolve()
	return addr
}

// Table holds the symbols a library interposes.
type Table struct {
	mu      sync.RWMutex
	symbols map[string]*Symbol
	lookup  Lookup
	logger  *log.Logger
}

// NewTable creates an empty table resolving through lookup.
func NewTable(lookup Lookup, logger *log.Logger) *Table {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Table{
		symbols: make(map[string]*Symbol),
		lookup:  lookup,
		logger:  logger,
	}
}

// Register adds name to the table and returns its Symbol. Registering the
// same name twice returns the same Symbol.
func (t *Table) Register(name string) *Symbol {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sym, found := t.symbols[name]; found {
		return sym
	}
	sym := New(name, t.lookup, t.logger)
	t.symbols[name] = sym
	t.logger.Debug("registered", zap.String("fn", name))
	return sym
}

// Get returns the Symbol registered under name.
func (t *Table) Get(name string) (*Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sym, found := t.symbols[name]
	return sym, found
}

// ResolveAll resolves every registered symbol and joins the failures.
func (t *Table) ResolveAll() error {
	var errs []error
	for _, name := range t.List() {
		sym, _ := t.Get(name)
		if _, err := sym.Resolve(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// List returns the registered names in sorted order.
func (t *Table) List() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.symbols))
	for name := range t.symbols {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Count returns the number of registered symbols.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.symbols)
}
