package crawler

import (
	"net/url"
	"strings"
)

var invalidNameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// SiteName turns the seed host into a directory name: "www." dropped, dots to underscores.
func SiteName(u *url.URL) string {
	name := strings.ReplaceAll(u.Host, "www.", "")
	name = strings.ReplaceAll(name, ".", "_")
	return invalidNameChars.Replace(name)
}

// PageName turns a URL path into a file name that is valid on Windows too.
func PageName(u *url.URL) string {
	path := strings.TrimSuffix(u.Path, "/")
	name := strings.TrimSpace(strings.ReplaceAll(path, "/", "_"))
	name = invalidNameChars.Replace(name)
	if name == "" {
		return "index"
	}
	return name
}
