package domain

import (
	"net/url"
	"strings"
)

var knownCancellationURLs = map[string]string{
	"netflix":              "https://www.netflix.com/cancelplan",
	"spotify":              "https://www.spotify.com/account/subscription/",
	"spotify premium":      "https://www.spotify.com/account/subscription/",
	"adobe":                "https://account.adobe.com/plans",
	"adobe creative cloud": "https://account.adobe.com/plans",
	"github":               "https://github.com/settings/billing",
	"github pro":           "https://github.com/settings/billing",
	"chatgpt":              "https://chat.openai.com/settings/subscription",
	"chatgpt plus":         "https://chat.openai.com/settings/subscription",
	"openai":               "https://platform.openai.com/account/billing",
	"figma":                "https://www.figma.com/settings",
	"youtube":              "https://www.youtube.com/paid_memberships",
	"youtube premium":      "https://www.youtube.com/paid_memberships",
	"amazon prime":         "https://www.amazon.com/gp/primecentral",
	"apple music":          "https://support.apple.com/en-us/HT202039",
	"disney+":              "https://www.disneyplus.com/account",
	"hulu":                 "https://secure.hulu.com/account",
	"hbo max":              "https://www.max.com/account",
	"max":                  "https://www.max.com/account",
}

// ResolveCancellationURL picks the stored URL, then a known service page
// matched by substring in either direction (longest key wins), then a web
// search.
func ResolveCancellationURL(serviceName, stored string) string {
	if stored = strings.TrimSpace(stored); stored != "" {
		return stored
	}

	name := strings.ToLower(strings.TrimSpace(serviceName))
	if name != "" {
		best := ""
		for key := range knownCancellationURLs {
			if (strings.Contains(name, key) || strings.Contains(key, name)) && len(key) > len(best) {
				best = key
			}
		}
		if best != "" {
			return knownCancellationURLs[best]
		}
	}

	return "https://www.google.com/search?q=cancel+" + url.QueryEscape(strings.TrimSpace(serviceName)) + "+subscription"
}
