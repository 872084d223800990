package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

// Target is where one item's artifact goes. Filename is empty for
// directory-shaped outputs (the extraction tool writes its own files).
type Target struct {
	Dir      string
	Filename string
}

// Path returns the artifact path: Dir/Filename, or Dir alone when the
// target is a directory.
func (t Target) Path() string {
	if t.Filename == "" {
		return t.Dir
	}
	return filepath.Join(t.Dir, t.Filename)
}

// Ensure creates the target directory if absent. It is idempotent and safe
// to call from concurrent workers.
func (t Target) Ensure() error {
	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", t.Dir, err)
	}
	return nil
}

// Output derives targets from items.
//
//	file mode:      <Root>/<category>/<variant>_<Suffix>.<Ext>
//	directory mode: <Root>/<category>/<variant>/
type Output struct {
	Root       string
	Suffix     string
	Ext        string // Without dot, e.g. "png".
	PerVariant bool   // Directory mode.
}

// Resolve returns the target for item. It depends only on the item's
// category and variant key.
func (o Output) Resolve(item Item) Target {
	dir := filepath.Join(o.Root, item.Category)
	if o.PerVariant {
		return Target{Dir: filepath.Join(dir, item.VariantKey)}
	}
	name := item.VariantKey
	if o.Suffix != "" {
		name += "_" + o.Suffix
	}
	if o.Ext != "" {
		name += "." + o.Ext
	}
	return Target{Dir: dir, Filename: name}
}
