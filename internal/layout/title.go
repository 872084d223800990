package layout

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title derives a display title from a variant key: underscores become
// spaces, words are title-cased, "Nii" reads "NIfTI", and filler words in
// strip (case-insensitive) are dropped.
//
//	Title("matches_combined_early_late", []string{"Matches", "Merged"}) == "Combined Early Late"
func Title(variant string, strip []string) string {
	words := strings.Fields(cases.Title(language.Und).String(strings.ReplaceAll(variant, "_", " ")))
	kept := words[:0]
	for _, w := range words {
		if containsFold(strip, w) {
			continue
		}
		if w == "Nii" {
			w = "NIfTI"
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// CategoryLabel renders a category directory name for humans, e.g.
// "negative_vs_positive" -> "Negative vs Positive".
func CategoryLabel(category string) string {
	words := strings.Fields(cases.Title(language.Und).String(strings.ReplaceAll(category, "_", " ")))
	for i, w := range words {
		if w == "Vs" {
			words[i] = "vs"
		}
	}
	return strings.Join(words, " ")
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
