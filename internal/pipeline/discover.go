package pipeline

import (
	"github.com/backmassage/brainbatch/internal/layout"
	"github.com/backmassage/brainbatch/internal/logging"
)

// Discover runs convention discovery under root and logs what was left out:
// every rejected path as a warning and every declared category that has no
// directory. Only a missing root is returned as an error.
func Discover(conv layout.Convention, root string, log *logging.Logger) (layout.Discovery, error) {
	d, err := conv.Discover(root)
	if err != nil {
		return d, err
	}
	for _, ce := range d.Rejected {
		log.Warn("Skipping %s: %s", ce.Path, ce.Reason)
	}
	for _, cat := range d.MissingCategories {
		log.Warn("Comparison directory not found: %s", cat)
	}
	log.Debug("Searched %s: %d item(s), %d rejected", d.SearchBase, len(d.Items), len(d.Rejected))
	return d, nil
}
