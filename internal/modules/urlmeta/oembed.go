package urlmeta

import "strings"

type oembedProvider struct {
	match    func(host string) bool
	endpoint string // the escaped page URL is appended
}

func hostContains(sub string) func(string) bool {
	return func(host string) bool { return strings.Contains(host, sub) }
}

// hostIs matches a registrable domain and its subdomains. "x.com" needs this
// because a plain substring would also match hosts like netflix.com.
func hostIs(domain string) func(string) bool {
	return func(host string) bool { return host == domain || strings.HasSuffix(host, "."+domain) }
}

var defaultProviders = []oembedProvider{
	{match: hostContains("instagram.com"), endpoint: "https://api.instagram.com/oembed?url="},
	{match: hostContains("twitter.com"), endpoint: "https://publish.twitter.com/oembed?url="},
	{match: hostIs("x.com"), endpoint: "https://publish.twitter.com/oembed?url="},
	{match: hostContains("tiktok.com"), endpoint: "https://www.tiktok.com/oembed?url="},
	{match: hostContains("youtube.com"), endpoint: "https://www.youtube.com/oembed?format=json&url="},
	{match: hostContains("youtu.be"), endpoint: "https://www.youtube.com/oembed?format=json&url="},
	{match: hostContains("vimeo.com"), endpoint: "https://vimeo.com/api/oembed.json?url="},
}
