package service

import "testing"

func TestParseUserAgent(t *testing.T) {
	cases := []struct {
		ua      string
		device  string
		browser string
		os      string
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64) Chrome/120.0 Safari/537.36", "desktop", "chrome", "windows"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Mobile/15E148 Safari/604.1", "mobile", "safari", "ios"},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Firefox/115.0", "desktop", "firefox", "linux"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Edg/120.0", "desktop", "edge", "macos"},
		{"Googlebot/2.1 (+http://www.google.com/bot.html)", "bot", "unknown", "unknown"},
		{"", "unknown", "unknown", "unknown"},
	}
	for _, tc := range cases {
		device, browser, os := ParseUserAgent(tc.ua)
		if device != tc.device || browser != tc.browser || os != tc.os {
			t.Errorf("ParseUserAgent(%q) = %s/%s/%s, want %s/%s/%s",
				tc.ua, device, browser, os, tc.device, tc.browser, tc.os)
		}
	}
}
