package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Recognized statistical-map extensions (lowercase, longest first).
var statMapExtensions = []string{".nii.gz", ".nii"}

// Item is one discovered statistical map. It is a value type and is never
// modified after discovery.
type Item struct {
	Path       string // Absolute path of the input file.
	Category   string // Segment right after the convention token.
	VariantKey string // File name without its statistical-map extension.
}

// Convention describes where inputs live relative to a study root. Its
// fields mirror config.Convention so a config value converts directly.
type Convention struct {
	Token      string
	Subpath    []string
	Pattern    string
	Categories []string
}

// Discovery is the outcome of walking a root: accepted items in stable path
// order, plus every path rejected for violating the convention.
type Discovery struct {
	SearchBase        string
	Items             []Item
	Rejected          []*ConventionError
	MissingCategories []string // Declared categories with no directory under SearchBase.
}

// SearchBase returns the token directory for root. A root that already is
// the token directory is used as is.
func (c Convention) SearchBase(root string) string {
	root = filepath.Clean(root)
	if filepath.Base(root) == c.Token {
		return root
	}
	return filepath.Join(root, c.Token)
}

// Discover enumerates candidate files under root following the convention.
// With declared categories, exactly those directories are searched in the
// declared order; otherwise every directory under the token is a category.
// Only a missing root is an error; a missing token directory yields an
// empty Discovery.
func (c Convention) Discover(root string) (Discovery, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Discovery{}, fmt.Errorf("resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return Discovery{}, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	base := c.SearchBase(abs)
	d := Discovery{SearchBase: base}

	categories := c.Categories
	if len(categories) == 0 {
		categories, err = listDirs(base)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return d, nil
			}
			return d, fmt.Errorf("list categories in %s: %w", base, err)
		}
	}

	var paths []string
	for _, cat := range categories {
		catDir := filepath.Join(base, cat)
		if len(c.Categories) > 0 {
			if fi, err := os.Stat(catDir); err != nil || !fi.IsDir() {
				d.MissingCategories = append(d.MissingCategories, cat)
				continue
			}
		}
		leaf := filepath.Join(append([]string{catDir}, c.Subpath...)...)
		entries, err := os.ReadDir(leaf)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return d, fmt.Errorf("read %s: %w", leaf, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			paths = append(paths, filepath.Join(leaf, e.Name()))
		}
	}

	found := c.Items(paths)
	d.Items = found.Items
	d.Rejected = found.Rejected
	return d, nil
}

// Items turns candidate paths into items. Names that do not match the file
// pattern are skipped silently; paths that match but break the directory
// convention are returned as rejections. Items are sorted by path.
func (c Convention) Items(paths []string) Discovery {
	var d Discovery
	for _, p := range paths {
		if !c.Matches(filepath.Base(p)) {
			continue
		}
		item, err := c.ParseItem(p)
		if err != nil {
			var ce *ConventionError
			if !errors.As(err, &ce) {
				ce = &ConventionError{Path: p, Reason: err.Error()}
			}
			d.Rejected = append(d.Rejected, ce)
			continue
		}
		d.Items = append(d.Items, item)
	}
	sort.Slice(d.Items, func(i, j int) bool { return d.Items[i].Path < d.Items[j].Path })
	return d
}

// Matches reports whether a file name is a candidate: it must match the
// pattern and carry a recognized statistical-map extension.
func (c Convention) Matches(name string) bool {
	ok, err := filepath.Match(c.Pattern, name)
	if err != nil || !ok {
		return false
	}
	return statMapExt(name) != ""
}

// ParseItem validates path against the convention by asserting segment
// names at fixed depths from the file end:
//
//	... / <Token> / <category> / <Subpath[0]> / ... / <file>
//
// Any mismatch returns a *ConventionError.
func (c Convention) ParseItem(path string) (Item, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Item{}, &ConventionError{Path: path, Reason: err.Error()}
	}
	segs := splitPath(abs)
	name := segs[len(segs)-1]

	if !c.Matches(name) {
		return Item{}, &ConventionError{Path: abs, Reason: fmt.Sprintf("file name %q does not match %q", name, c.Pattern)}
	}
	if !containsSegment(segs[:len(segs)-1], c.Token) {
		return Item{}, &ConventionError{Path: abs, Reason: fmt.Sprintf("missing %q segment", c.Token)}
	}

	// file + subpath + category + token
	need := 1 + len(c.Subpath) + 1 + 1
	if len(segs) < need {
		return Item{}, &ConventionError{Path: abs, Reason: "path too short for the directory convention"}
	}
	tokenIdx := len(segs) - need
	if segs[tokenIdx] != c.Token {
		return Item{}, &ConventionError{
			Path:   abs,
			Reason: fmt.Sprintf("expected %q %d levels above the file, found %q", c.Token, need-1, segs[tokenIdx]),
		}
	}
	for i, want := range c.Subpath {
		if got := segs[tokenIdx+2+i]; got != want {
			return Item{}, &ConventionError{Path: abs, Reason: fmt.Sprintf("expected segment %q, found %q", want, got)}
		}
	}

	category := segs[tokenIdx+1]
	if len(c.Categories) > 0 && !containsSegment(c.Categories, category) {
		return Item{}, &ConventionError{Path: abs, Reason: fmt.Sprintf("category %q is not declared", category)}
	}

	return Item{
		Path:       abs,
		Category:   category,
		VariantKey: VariantKey(name),
	}, nil
}

// VariantKey strips a recognized statistical-map extension from name.
func VariantKey(name string) string {
	if ext := statMapExt(name); ext != "" {
		return name[:len(name)-len(ext)]
	}
	return name
}

func statMapExt(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range statMapExtensions {
		if strings.HasSuffix(lower, ext) && len(name) > len(ext) {
			return ext
		}
	}
	return ""
}

func splitPath(p string) []string {
	vol := filepath.VolumeName(p)
	rest := strings.TrimPrefix(p[len(vol):], string(filepath.Separator))
	return strings.Split(rest, string(filepath.Separator))
}

func containsSegment(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// listDirs returns the names of the subdirectories of dir, sorted.
func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
