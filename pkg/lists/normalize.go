package lists

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var (
	rankPrefixPattern = regexp.MustCompile(`^\s*\d{1,3}[.、]\s*`)
	trailingYearPattern = regexp.MustCompile(`\s*\((\d{4})\)\s*$`)
	seasonSuffixPattern = regexp.MustCompile(`\s*第([0-9一二三四五六七八九十]+)季\s*$`)
)

var cjkDigits = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9,
}

// NormalizeTitle prepares a ranked-list title for TMDb search. It strips a
// leading "NN." rank, folds full-width punctuation, peels a trailing "(YYYY)"
// into a year hint, and peels a trailing CJK season ordinal into a season
// number. Zero means no hint.
func NormalizeTitle(raw string) (title string, yearHint int, seasonNumber int) {
	title = width.Fold.String(strings.TrimSpace(raw))
	title = rankPrefixPattern.ReplaceAllString(title, "")

	if m := trailingYearPattern.FindStringSubmatch(title); m != nil {
		yearHint, _ = strconv.Atoi(m[1])
		title = strings.TrimSpace(trailingYearPattern.ReplaceAllString(title, ""))
	}

	if m := seasonSuffixPattern.FindStringSubmatch(title); m != nil {
		seasonNumber = parseCJKNumeral(m[1])
		title = strings.TrimSpace(seasonSuffixPattern.ReplaceAllString(title, ""))
	}

	return strings.TrimSpace(title), yearHint, seasonNumber
}

// parseCJKNumeral reads decimal digits or the CJK numerals used in season
// ordinals (一 through 九十九). Unparseable input yields zero.
func parseCJKNumeral(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}

	tens, units := 0, 0
	sawTen := false
	for _, r := range s {
		switch {
		case r == '十':
			sawTen = true
			if units > 0 {
				tens = units
				units = 0
			} else {
				tens = 1
			}
		case cjkDigits[r] > 0:
			units = cjkDigits[r]
		default:
			return 0
		}
	}

	if sawTen {
		return tens*10 + units
	}
	return units
}
