package security

import (
	"strings"
	"unicode"
)

// spamKeywords is matched case-insensitively as substrings across the
// combined name, subject and message text.
var spamKeywords = []string{
	"viagra",
	"cialis",
	"casino",
	"lottery",
	"jackpot",
	"bitcoin investment",
	"crypto profit",
	"forex",
	"make money fast",
	"work from home",
	"seo service",
	"backlinks",
	"click here",
	"buy now",
	"limited offer",
	"free money",
	"guaranteed income",
	"payday loan",
}

const (
	maxLinks          = 2
	repeatedRunLength = 10
	uppercaseMinLen   = 50
)

// HoneypotFilled reports whether a hidden form field was filled in.
// Humans never see the field, so any non-whitespace content implies an
// automated submission.
func HoneypotFilled(value string) bool {
	return strings.TrimSpace(value) != ""
}

// DetectSpam scores a submission against a set of heuristics. Any single
// hit classifies the submission as spam; the returned reason names the
// first rule that fired, for the security log.
func DetectSpam(name, subject, message string) (bool, string) {
	combined := strings.ToLower(name + " " + subject + " " + message)

	for _, keyword := range spamKeywords {
		if strings.Contains(combined, keyword) {
			return true, "spam_keyword"
		}
	}

	links := strings.Count(combined, "http://") + strings.Count(combined, "https://")
	if links > maxLinks {
		return true, "excessive_links"
	}

	if hasRepeatedRun(name+subject+message, repeatedRunLength) {
		return true, "repeated_characters"
	}

	if len(message) > uppercaseMinLen && isAllUppercase(message) {
		return true, "all_uppercase"
	}

	return false, ""
}

// hasRepeatedRun reports whether the text contains a run of n or more
// identical consecutive characters.
func hasRepeatedRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// isAllUppercase reports whether the text contains letters and none of
// them are lowercase.
func isAllUppercase(text string) bool {
	hasLetter := false
	for _, r := range text {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
