package urlmeta

import (
	"html"
	"regexp"
	"strings"
)

var (
	metaTagRe   = regexp.MustCompile(`(?is)<meta\s[^>]*>`)
	metaAttrRe  = regexp.MustCompile(`(?is)([a-z_:-]+)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	titleTagRe  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	whitespaces = regexp.MustCompile(`\s+`)
)

// ParseOpenGraph pulls og:* tags plus <title> and meta description out of raw
// HTML with pattern matching, so broken markup still yields what it can.
// Keys are the og suffix ("title", "image", "site_name", ...). The first
// occurrence of a key wins.
func ParseOpenGraph(page string) map[string]string {
	tags := map[string]string{}
	var metaDescription string

	for _, tag := range metaTagRe.FindAllString(page, -1) {
		attrs := map[string]string{}
		for _, m := range metaAttrRe.FindAllStringSubmatch(tag, -1) {
			val := m[2]
			if val == "" {
				val = m[3]
			}
			attrs[strings.ToLower(m[1])] = val
		}
		content := clean(attrs["content"])
		if content == "" {
			continue
		}
		key := strings.ToLower(attrs["property"])
		if key == "" {
			key = strings.ToLower(attrs["name"])
		}
		switch {
		case strings.HasPrefix(key, "og:"):
			k := strings.TrimPrefix(key, "og:")
			if _, ok := tags[k]; !ok {
				tags[k] = content
			}
		case key == "description" && metaDescription == "":
			metaDescription = content
		}
	}

	if tags["title"] == "" {
		if m := titleTagRe.FindStringSubmatch(page); m != nil {
			if t := clean(m[1]); t != "" {
				tags["title"] = t
			}
		}
	}
	if tags["description"] == "" && metaDescription != "" {
		tags["description"] = metaDescription
	}
	return tags
}

func clean(s string) string {
	return strings.TrimSpace(whitespaces.ReplaceAllString(html.UnescapeString(s), " "))
}
