package service

import "strings"

// ParseUserAgent derives coarse device, browser and OS labels from a
// User-Agent header. Best effort; unknown agents map to "unknown".
func ParseUserAgent(ua string) (device, browser, os string) {
	device, browser, os = "unknown", "unknown", "unknown"
	if ua == "" {
		return
	}
	lower := strings.ToLower(ua)

	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		device = "tablet"
	case strings.Contains(lower, "mobile") || strings.Contains(lower, "iphone") || strings.Contains(lower, "android"):
		device = "mobile"
	case strings.Contains(lower, "bot") || strings.Contains(lower, "crawler") || strings.Contains(lower, "spider"):
		device = "bot"
	default:
		device = "desktop"
	}

	switch {
	case strings.Contains(lower, "edg/") || strings.Contains(lower, "edge"):
		browser = "edge"
	case strings.Contains(lower, "opr/") || strings.Contains(lower, "opera"):
		browser = "opera"
	case strings.Contains(lower, "chrome"):
		browser = "chrome"
	case strings.Contains(lower, "firefox"):
		browser = "firefox"
	case strings.Contains(lower, "safari"):
		browser = "safari"
	}

	switch {
	case strings.Contains(lower, "windows"):
		os = "windows"
	case strings.Contains(lower, "android"):
		os = "android"
	case strings.Contains(lower, "iphone") || strings.Contains(lower, "ipad") || strings.Contains(lower, "ios"):
		os = "ios"
	case strings.Contains(lower, "mac os") || strings.Contains(lower, "macintosh"):
		os = "macos"
	case strings.Contains(lower, "linux"):
		os = "linux"
	}
	return
}
