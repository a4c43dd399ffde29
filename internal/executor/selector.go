package executor

import (
	"bufio"
	"net/url"
	"os"
	"regexp"
)

var titlePattern = regexp.MustCompile(`(?:describe|casper\.test\.begin)\s*\(?\s*["']([^"']+)["']`)

// Selector returns the first suite title declared in the scenario file at
// path, or "" for directories and files without one.
func Selector(path string) string {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := titlePattern.FindStringSubmatch(scanner.Text()); m != nil {
			return m[1]
		}
	}
	return ""
}

// ScenarioURL appends the scenario selector to baseURL.
func ScenarioURL(baseURL, selector string) string {
	if selector == "" {
		return baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + "?scenario=" + url.QueryEscape(selector)
	}
	q := u.Query()
	q.Set("scenario", selector)
	u.RawQuery = q.Encode()
	return u.String()
}
