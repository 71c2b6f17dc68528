// Package elfinfo inspects the dynamic symbols of a shared object, enough to
// tell whether it can interpose a given set of libc functions.
package elfinfo

import (
	"debug/elf"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrNotShared is returned by [Info.CheckPreloadable] for ELF files that
// are not shared objects.
var ErrNotShared = errors.New("not a shared object")

// Info contains parsed ELF metadata
type Info struct {
	Path    string
	Machine elf.Machine
	Type    elf.Type
	Exports map[string]uint64 // defined function symbol -> address
	Imports []string          // undefined dynamic symbols, sorted
	Needed  []string          // DT_NEEDED libraries
}

// Inspect reads the dynamic symbol table of the ELF file at path.
func Inspect(path string) (*Info, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ELF: %w", err)
	}
	defer f.Close()

	info := &Info{
		Path:    path,
		Machine: f.Machine,
		Type:    f.Type,
		Exports: make(map[string]uint64),
	}

	// A binary without dynamic symbols exports nothing.
	syms, err := f.DynamicSymbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("read dynamic symbols: %w", err)
	}
	for _, sym := range syms {
		if sym.Name == "" {
			continue
		}
		name := stripVersion(sym.Name)
		if sym.Section == elf.SHN_UNDEF {
			info.Imports = append(info.Imports, name)
			continue
		}
		if elf.ST_TYPE(sym.Info) == elf.STT_FUNC && elf.ST_BIND(sym.Info) != elf.STB_LOCAL {
			info.Exports[name] = sym.Value
		}
	}
	slices.Sort(info.Imports)
	info.Imports = slices.Compact(info.Imports)

	if needed, err := f.ImportedLibraries(); err == nil {
		info.Needed = needed
	}
	return info, nil
}

// stripVersion removes an @VERSION or @@VERSION suffix.
func stripVersion(name string) string {
	if idx := strings.Index(name, "@"); idx != -1 {
		return name[:idx]
	}
	return name
}

// FindExport looks up an exported function, returns 0 if not found
func (info *Info) FindExport(name string) uint64 {
	return info.Exports[name]
}

// Missing returns the names that info does not export, in input order.
func (info *Info) Missing(names ...string) []string {
	var out []string
	for _, name := range names {
		if _, found := info.Exports[name]; !found {
			out = append(out, name)
		}
	}
	return out
}

// CheckPreloadable reports whether info is a shared object exporting every
// name in names.
func (info *Info) CheckPreloadable(names ...string) error {
	if info.Type != elf.ET_DYN {
		return fmt.Errorf("%s: %w (%v)", info.Path, ErrNotShared, info.Type)
	}
	if missing := info.Missing(names...); len(missing) > 0 {
		return fmt.Errorf("%s: missing exports: %s", info.Path, strings.Join(missing, ", "))
	}
	return nil
}
