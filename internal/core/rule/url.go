package rule

import "strings"

// SplitURL splits a "host[/path]" string into a hostname and a rooted path
// without trailing slash:
//
//	example.com          -> "example.com", ""
//	example.com/api/     -> "example.com", "/api"
//	/api                 -> "", "/api"
func SplitURL(url string) (hostname, path string) {
	host, rest, _ := strings.Cut(strings.TrimSpace(url), "/")
	rest = strings.TrimRight(rest, "/")
	if rest != "" {
		path = "/" + rest
	}
	return host, path
}
