package estimator

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/julianstephens/dayfill/internal/constants"
)

var (
	bracketPattern = regexp.MustCompile(`\[([^\[\]]*)\]`)
	hintPattern    = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?$`)
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "into": {},
	"onto": {}, "about": {}, "this": {}, "that": {}, "our": {}, "your": {},
	"new": {}, "some": {}, "all": {},
}

// ParseHint finds the first bracketed duration token in notes, such as
// "[45m]", "[2h]" or "[1h30m]". Anything else is ignored, including hints
// longer than a day.
func ParseHint(notes string) (time.Duration, bool) {
	for _, m := range bracketPattern.FindAllStringSubmatch(notes, -1) {
		token := strings.ToLower(strings.Join(strings.Fields(m[1]), ""))
		parts := hintPattern.FindStringSubmatch(token)
		if parts == nil || (parts[1] == "" && parts[2] == "") {
			continue
		}
		maxMins := int64(constants.MaxHintDuration / time.Minute)
		var total int64
		if parts[1] != "" {
			h, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil || h > maxMins/60 {
				continue
			}
			total += h * 60
		}
		if parts[2] != "" {
			mins, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil || mins > maxMins {
				continue
			}
			total += mins
		}
		if total <= 0 || total > maxMins {
			continue
		}
		d := time.Duration(total) * time.Minute
		return d, true
	}
	return 0, false
}

// Keyword extracts the word used to group recurring tasks by title: the first
// word of at least three letters that is neither numeric nor a stop word.
func Keyword(title string) string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if len([]rune(w)) < constants.MinKeywordLength {
			continue
		}
		if isNumeric(w) {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		return w
	}
	return ""
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ListKey is the primary group key of a task list.
func ListKey(list string) string {
	return strings.TrimSpace(list)
}

// KeywordKey is the secondary group key combining a list and a title keyword.
func KeywordKey(list, keyword string) string {
	if keyword == "" {
		return ""
	}
	return ListKey(list) + constants.KeywordGroupSeparator + keyword
}
