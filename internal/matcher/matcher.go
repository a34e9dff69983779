// Package matcher implements the heuristics used to decide track identity
// across sources that share no common identifier.
//
// Two keys are produced:
//   - [Signature] : a lowercase artist+title string, the fallback identity
//     key inside a single playlist when the remote track ID is unreliable
//   - [CleanTitle] : a search-friendly title with trailing parenthetical
//     qualifiers like "(Official Video)" stripped, used to query the
//     target service during cross-catalog sync
//
// Matching is best-effort; [Confidence] scores a candidate so callers can
// flag low-confidence matches for review instead of silently accepting them.
package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, folds accented characters to their base form
// and collapses punctuation and runs of whitespace.
func Normalize(text string) string {
	text = norm.NFKD.String(text)

	var b strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			b.WriteRune(r)
		}
	}
	text = b.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return strings.TrimSpace(strings.ToLower(text))
}

// Signature returns the lowercase "artists - title" identity key for a track.
// Used as the duplicate-detection fallback when IDs repeat unreliably.
func Signature(artists []string, title string) string {
	joined := strings.ToLower(strings.Join(artists, " "))
	return joined + " - " + strings.ToLower(title)
}

// CleanTitle truncates a title at the first parenthetical or bracketed
// qualifier. "Song Name (Official Video)" becomes "Song Name".
func CleanTitle(title string) string {
	if idx := strings.IndexAny(title, "(["); idx >= 0 {
		title = title[:idx]
	}
	return strings.TrimSpace(title)
}

// Confidence scores how well a candidate track matches the wanted artist and
// title, in [0, 1]. Both sides are normalized before comparison.
func Confidence(wantArtist, wantTitle, gotArtist, gotTitle string) float64 {
	artistScore := Similarity(Normalize(wantArtist), Normalize(gotArtist))
	titleScore := Similarity(Normalize(CleanTitle(wantTitle)), Normalize(CleanTitle(gotTitle)))
	return (artistScore + titleScore) / 2
}

// Similarity computes a longest-common-subsequence ratio between two strings.
func Similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}
	return float64(longestCommonSubsequence(s1, s2)) / float64(max(len(s1), len(s2)))
}

func longestCommonSubsequence(s1, s2 string) int {
	m, n := len(s1), len(s2)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if s1[i-1] == s2[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[m][n]
}
