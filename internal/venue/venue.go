// Package venue maps quote-API route descriptions to DEX venue labels.
package venue

import "strings"

// Known venue labels.
const (
	Raydium  = "Raydium"
	Orca     = "Orca"
	Lifinity = "Lifinity"
)

// programIDs maps each venue to the swap program ids it is known to route
// through.
var programIDs = map[string][]string{
	Raydium:  {"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"},
	Orca:     {"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"},
	Lifinity: {"EewxydAPCCVuNEyrVN68PuSYdQ7wKn27V9Gjeoi8dy3S"},
}

// All returns the venue labels in publication order.
func All() []string {
	return []string{Raydium, Orca, Lifinity}
}

// Classify maps the program ids of a route's steps to a venue label,
// scanning steps in order; the first step matching a known program wins.
// Unknown routes fall back on shape: direct routes usually clear through
// Raydium, multi-hop through Orca, and an empty route is attributed to
// Lifinity. A heuristic, not authoritative venue detection.
func Classify(stepPrograms []string) string {
	for _, program := range stepPrograms {
		for _, v := range All() {
			for _, id := range programIDs[v] {
				if strings.Contains(program, id) {
					return v
				}
			}
		}
	}
	switch {
	case len(stepPrograms) == 1:
		return Raydium
	case len(stepPrograms) > 1:
		return Orca
	}
	return Lifinity
}
