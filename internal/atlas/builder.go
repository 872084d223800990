package atlas

import (
	"strconv"

	"github.com/backmassage/brainbatch/internal/config"
	"github.com/backmassage/brainbatch/internal/layout"
)

// Build constructs the complete atlasreader argument slice for an item. The
// first element is the executable.
func Build(cfg config.Atlas, item layout.Item, target layout.Target) []string {
	return []string{
		cfg.Binary,
		item.Path,
		strconv.Itoa(cfg.MinClusterSize),
		"--outdir", target.Dir,
		"--threshold", strconv.FormatFloat(cfg.Threshold, 'g', -1, 64),
		"--direction", string(cfg.Direction),
	}
}
