// Package durable keeps the bookkeeping for Durable Object classes:
// which source modules define them, the namespace (class export) name
// each one is bundled under, and the namespace id the platform assigned.
//
// The state lives in a JSON references file (durable.json by default)
// keyed by module path, so repeated deploys reuse the same namespaces.
package durable

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// marker separates a durable module's class name from its extension.
const marker = ".durable"

// Suffixes a durable module file may end with.
var Suffixes = []string{marker, marker + ".js", marker + ".ts", marker + ".mjs"}

// Reference records one durable class.
type Reference struct {
	// Name is the human-readable class name, e.g. "Counter".
	Name string `json:"name"`
	// Namespace is the bundle export name: Name plus a path hash.
	Namespace string `json:"namespace"`
	// ID is the platform namespace id, empty until deployed.
	ID string `json:"id,omitempty"`
}

// References maps a module path (slash-separated, relative to the
// source root) to its Reference.
type References map[string]*Reference

// IsModule reports whether name looks like a durable module.
func IsModule(name string) bool {
	for _, s := range Suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// ClassName derives the class name from a module's base name:
// "counter.durable.js" → "Counter".
func ClassName(module string) (string, error) {
	base := path.Base(filepath.ToSlash(module))
	i := strings.Index(base, marker)
	if i <= 0 {
		return "", fmt.Errorf("durable: %q has no class name before %q", module, marker)
	}
	name := base[:i]
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + strings.ToLower(name[size:]), nil
}

// Hash returns the 8-hex-digit suffix for a module path.
func Hash(rel string) string {
	sum := sha1.Sum([]byte(filepath.ToSlash(rel)))
	return hex.EncodeToString(sum[:])[:8]
}

// NewReference builds the Reference for module. relToEntry is the
// module's path relative to the calling worker's entry directory; it
// disambiguates classes with the same name in different directories.
func NewReference(module, relToEntry string) (*Reference, error) {
	name, err := ClassName(module)
	if err != nil {
		return nil, err
	}
	return &Reference{
		Name:      name,
		Namespace: name + "_" + Hash(relToEntry),
	}, nil
}

// Scan returns every durable module under root as slash-separated
// paths relative to root, sorted. node_modules is skipped.
func Scan(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "**/*"+marker+"*", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("durable: scan %s: %w", root, err)
	}

	modules := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasPrefix(m, "node_modules/") || strings.Contains(m, "/node_modules/") {
			continue
		}
		if IsModule(m) {
			modules = append(modules, m)
		}
	}
	sort.Strings(modules)
	return modules, nil
}

// Load reads a references file. A missing file yields an empty set.
func Load(file string) (References, error) {
	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return References{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("durable: read %s: %w", file, err)
	}

	refs := References{}
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("durable: parse %s: %w", file, err)
	}
	return refs, nil
}

// Save writes refs as two-space indented JSON.
func (refs References) Save(file string) error {
	data, err := json.MarshalIndent(refs, "", "  ")
	if err != nil {
		return fmt.Errorf("durable: encode references: %w", err)
	}
	if err := os.WriteFile(file, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("durable: write %s: %w", file, err)
	}
	return nil
}

// Add registers ref under module unless module is already known, in
// which case the existing entry (and its namespace id) is kept.
func (refs References) Add(module string, ref *Reference) bool {
	if _, ok := refs[module]; ok {
		return false
	}
	refs[module] = ref
	return true
}

// Modules returns the registered module paths, sorted.
func (refs References) Modules() []string {
	modules := make([]string, 0, len(refs))
	for m := range refs {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules
}

// Discover scans root and registers every durable module not yet in
// refs. entry is the calling worker's entry file; both paths are
// relative to the working directory. It returns the newly added modules.
func Discover(root, entry string, refs References) ([]string, error) {
	modules, err := Scan(root)
	if err != nil {
		return nil, err
	}

	entryDir := filepath.Dir(entry)
	var added []string
	for _, m := range modules {
		rel, err := filepath.Rel(entryDir, filepath.Join(root, filepath.FromSlash(m)))
		if err != nil {
			return nil, fmt.Errorf("durable: %s: %w", m, err)
		}
		ref, err := NewReference(m, rel)
		if err != nil {
			return nil, err
		}
		if refs.Add(m, ref) {
			added = append(added, m)
		}
	}
	return added, nil
}

// EntrySource renders the durable bundle's entry module: one re-export
// per class, then the default fetch handler the platform requires of
// every module worker. importPrefix is the path from the entry file's
// directory to the source root.
func EntrySource(refs References, importPrefix string) string {
	var b strings.Builder
	for _, m := range refs.Modules() {
		from := path.Join(filepath.ToSlash(importPrefix), m)
		if !strings.HasPrefix(from, ".") && !strings.HasPrefix(from, "/") {
			from = "./" + from
		}
		fmt.Fprintf(&b, "export { default as %s } from %q;\n", refs[m].Namespace, from)
	}
	b.WriteString(`
export default {
  async fetch(request, env) {
    return new Response("ignore me");
  }
};
`)
	return b.String()
}
