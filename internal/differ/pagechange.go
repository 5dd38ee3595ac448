package differ

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/webrewind/webrewind/internal/config"
	"github.com/webrewind/webrewind/internal/extractor"
	"github.com/webrewind/webrewind/internal/models"
)

// ComparePages scores the change between two text versions of the same URL.
// Texts are capped at the configured comparison size so the diff stays a
// bounded inline cost.
func (d *Differ) ComparePages(url, fromTimestamp, toTimestamp, fromText, toText string) models.PageChange {
	fromText = d.capText(fromText)
	toText = d.capText(toText)

	change := models.PageChange{
		URL:           url,
		FromTimestamp: fromTimestamp,
		ToTimestamp:   toTimestamp,
		FromHash:      extractor.ContentHash(fromText),
		ToHash:        extractor.ContentHash(toText),
	}

	// Hash equality is a cheap exact-match proof; skip the diff entirely.
	if change.FromHash == change.ToHash {
		change.Similarity = 1.0
		change.ChangeType = models.ChangeIdentical
		return change
	}

	diffs := d.dmp.DiffMain(fromText, toText, true)
	change.Similarity = similarityRatio(diffs, len(fromText), len(toText))
	change.LinesAdded, change.LinesRemoved = lineCounts(diffs)
	change.ChangeType = models.ClassifyChange(change.Similarity)
	return change
}

func (d *Differ) capText(text string) string {
	capKB := d.config.MaxComparedKB
	if capKB <= 0 {
		capKB = config.DefaultMaxComparedKB
	}
	limit := capKB * 1024
	if len(text) > limit {
		return text[:limit]
	}
	return text
}

// similarityRatio is the classical diff ratio: twice the matched length over
// the combined input length, in [0,1].
func similarityRatio(diffs []diffmatchpatch.Diff, len1, len2 int) float64 {
	total := len1 + len2
	if total == 0 {
		return 1.0
	}
	matched := 0
	for _, diff := range diffs {
		if diff.Type == diffmatchpatch.DiffEqual {
			matched += len(diff.Text)
		}
	}
	ratio := 2 * float64(matched) / float64(total)
	if ratio > 1.0 {
		ratio = 1.0
	}
	return ratio
}

// lineCounts derives added/removed line counts from the diff segments. A
// segment without a trailing newline still counts as touching one line.
func lineCounts(diffs []diffmatchpatch.Diff) (added, removed int) {
	for _, diff := range diffs {
		if diff.Text == "" {
			continue
		}
		lines := strings.Count(diff.Text, "\n")
		if !strings.HasSuffix(diff.Text, "\n") {
			lines++
		}
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			added += lines
		case diffmatchpatch.DiffDelete:
			removed += lines
		}
	}
	return added, removed
}
