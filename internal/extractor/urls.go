package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"mvdan.cc/xurls/v2"
)

var strictHTTPURL = sync.OnceValues(func() (*regexp.Regexp, error) {
	return xurls.StrictMatchingScheme(`https?://`)
})

// FindURLs returns the distinct http(s) URLs found in text, in order of
// first appearance.
func FindURLs(text string) ([]string, error) {
	re, err := strictHTTPURL()
	if err != nil {
		return nil, fmt.Errorf("create regexp: %w", err)
	}

	matches := re.FindAllString(strings.TrimSpace(text), -1)

	urls := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))

	for _, m := range matches {
		normalized, validateErr := ValidateURL(m)
		if validateErr != nil {
			continue
		}

		if _, ok := seen[normalized]; ok {
			continue
		}

		urls = append(urls, normalized)
		seen[normalized] = struct{}{}
	}

	return urls, nil
}
