package searcher

import (
	"sort"
	"strings"

	"github.com/webrewind/webrewind/internal/models"
	"github.com/webrewind/webrewind/internal/urlhandler"
)

const (
	documentExtensionBoost = 100
	priorityTermBoost      = 10
)

// snapshotScore ranks a snapshot within its year: a strong boost for document
// extensions (pdf, doc, xls, ...) plus one boost per priority term present in
// the URL.
func snapshotScore(snap models.Snapshot, priorityTerms []string) int {
	score := 0
	if urlhandler.HasDocumentExtension(snap.URL) {
		score += documentExtensionBoost
	}
	lower := strings.ToLower(snap.URL)
	for _, term := range priorityTerms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			score += priorityTermBoost
		}
	}
	return score
}

// rankSnapshots orders snapshots by priority score, ties broken by timestamp:
// newer first when walking backwards through time, older first otherwise.
func rankSnapshots(snapshots []models.Snapshot, priorityTerms []string, direction string) {
	backwards := direction != "forwards"
	scores := make(map[int]int, len(snapshots))
	for i, snap := range snapshots {
		scores[i] = snapshotScore(snap, priorityTerms)
	}
	order := make([]int, len(snapshots))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		if backwards {
			return snapshots[order[a]].Timestamp > snapshots[order[b]].Timestamp
		}
		return snapshots[order[a]].Timestamp < snapshots[order[b]].Timestamp
	})

	ranked := make([]models.Snapshot, len(snapshots))
	for i, idx := range order {
		ranked[i] = snapshots[idx]
	}
	copy(snapshots, ranked)
}
