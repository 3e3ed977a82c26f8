package processing

import (
	"regexp"
	"strings"
)

// MaxTags caps the number of tags attached to a record.
const MaxTags = 5

// minTagLen is exclusive: a tag must be longer than this.
const minTagLen = 2

var wordRegex = regexp.MustCompile(`[A-Za-z0-9_]+`)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "after": {}, "at": {}, "from": {},
	"in": {}, "of": {}, "on": {}, "to": {}, "with": {},
}

// IsStopword reports whether token is filtered out of tag lists.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// ExtractTags returns up to MaxTags lower-cased words from text in the order they appear.
// Words of two characters or fewer and stopwords are skipped. Repeated words are kept.
func ExtractTags(text string) []string {
	tags := make([]string, 0, MaxTags)
	for _, token := range wordRegex.FindAllString(strings.ToLower(text), -1) {
		if len(token) <= minTagLen {
			continue
		}
		if IsStopword(token) {
			continue
		}
		tags = append(tags, token)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}
