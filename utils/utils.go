// Package utils holds URL helpers shared by the frontier, extractor and citation builder.
package utils

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
)

var (
	errEmptyURL            = errors.New("empty url")
	errMissingSchemeOrHost = errors.New("missing scheme or host")
)

// trackingParams are dropped during normalization; they do not change page content.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
}

// fileExtensions marks links pointing at downloadable documents.
var fileExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".xls":  {},
	".xlsx": {},
	".csv":  {},
	".odt":  {},
	".ods":  {},
	".ppt":  {},
	".pptx": {},
	".rtf":  {},
	".zip":  {},
}

// nonPageExtensions are assets the crawler never fetches as pages.
var nonPageExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
	".svg": {}, ".ico": {}, ".webp": {}, ".mp4": {}, ".mp3": {}, ".exe": {}, ".dmg": {},
}

// IsValidURL reports whether rawURL is an absolute http(s) URL of a fetchable page.
// Document links (pdf, docx, ...) and static assets are rejected.
func IsValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if _, ok := nonPageExtensions[ext]; ok {
		return false
	}
	if _, ok := fileExtensions[ext]; ok {
		return false
	}

	return true
}

// IsFileLink reports whether rawURL points at a downloadable document.
func IsFileLink(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	_, ok := fileExtensions[strings.ToLower(path.Ext(u.Path))]
	return ok
}

// NormalizeURL returns the dedupe key for rawURL: lowercased scheme and host,
// no fragment, no trailing slash, default ports removed, query sorted with
// tracking parameters stripped.
func NormalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errEmptyURL
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("normalize url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("normalize url %q: %w", rawURL, errMissingSchemeOrHost)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = normalizeHost(u)
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	u.RawQuery = cleanQuery(u.Query())
	u.Path = normalizePath(u.Path)
	u.RawPath = ""

	return u.String(), nil
}

// ExtractHost returns the lowercased hostname of rawURL, without port.
func ExtractHost(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("extract host: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("extract host %q: %w", rawURL, errMissingSchemeOrHost)
	}
	return strings.ToLower(u.Hostname()), nil
}

// MakeAbsoluteURL resolves href against baseURL. Anchor-only links to the
// same page resolve to "".
func MakeAbsoluteURL(baseURL, href string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	link, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(link)
	if resolved.Fragment != "" && resolved.RawQuery == "" && resolved.Path == base.Path {
		return ""
	}

	return resolved.String()
}

func normalizeHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		return host
	}
	return host + ":" + port
}

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	cleaned := path.Clean(p)
	if cleaned == "/" {
		return cleaned
	}
	return strings.TrimRight(cleaned, "/")
}

func cleanQuery(values url.Values) string {
	for key := range values {
		if _, ok := trackingParams[strings.ToLower(key)]; ok {
			values.Del(key)
		}
	}
	if len(values) == 0 {
		return ""
	}
	for key := range values {
		sort.Strings(values[key])
	}
	// url.Values.Encode sorts by key.
	return values.Encode()
}
