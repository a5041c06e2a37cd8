package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name        string
		userAgent   string
		wantBrowser string
		wantOS      string
		wantDesktop bool
		wantMobile  bool
		wantTablet  bool
	}{
		{
			name:        "chrome on windows",
			userAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			wantBrowser: "Chrome",
			wantOS:      "Windows",
			wantDesktop: true,
		},
		{
			name:        "firefox on linux",
			userAgent:   "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			wantBrowser: "Firefox",
			wantOS:      "Linux",
			wantDesktop: true,
		},
		{
			name:        "safari on iphone",
			userAgent:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
			wantBrowser: "Safari",
			wantOS:      "iOS",
			wantMobile:  true,
		},
		{
			name:        "edge on windows",
			userAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91",
			wantBrowser: "Edge",
			wantOS:      "Windows",
			wantDesktop: true,
		},
		{
			name:        "chrome on android phone",
			userAgent:   "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			wantBrowser: "Chrome",
			wantOS:      "Android",
			wantMobile:  true,
		},
		{
			name:        "safari on ipad",
			userAgent:   "Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
			wantBrowser: "Safari",
			wantOS:      "iOS",
			wantTablet:  true,
		},
		{
			name:        "empty string",
			userAgent:   "",
			wantBrowser: "Unknown",
			wantOS:      "Unknown",
		},
		{
			name:        "gibberish",
			userAgent:   "definitely-not-a-browser/1.0",
			wantBrowser: "Unknown",
			wantOS:      "Unknown",
			wantDesktop: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseUserAgent(tt.userAgent)
			require.Equal(t, tt.wantBrowser, info.Browser)
			require.Equal(t, tt.wantOS, info.OS)
			require.Equal(t, tt.wantDesktop, info.IsDesktop)
			require.Equal(t, tt.wantMobile, info.IsMobile)
			require.Equal(t, tt.wantTablet, info.IsTablet)
		})
	}
}

func TestFormatDeviceInfo(t *testing.T) {
	chrome := ParseUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	require.Equal(t, "Chrome 120.0.0.0 on Windows 10", FormatDeviceInfo(chrome))

	unknown := ParseUserAgent("")
	require.Equal(t, "Unknown on Unknown", FormatDeviceInfo(unknown))
}
