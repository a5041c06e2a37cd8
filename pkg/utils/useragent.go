package utils

import (
	"regexp"
	"strings"
)

// DeviceInfo is the structured result of classifying a raw user-agent string.
type DeviceInfo struct {
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OS             string `json:"os"`
	OSVersion      string `json:"os_version,omitempty"`
	Device         string `json:"device"`
	IsDesktop      bool   `json:"is_desktop"`
	IsMobile       bool   `json:"is_mobile"`
	IsTablet       bool   `json:"is_tablet"`
}

var (
	firefoxVersionRe = regexp.MustCompile(`firefox/([\d.]+)`)
	edgeVersionRe    = regexp.MustCompile(`edg/([\d.]+)`)
	chromeVersionRe  = regexp.MustCompile(`chrome/([\d.]+)`)
	safariVersionRe  = regexp.MustCompile(`version/([\d.]+)`)
	ieVersionRe      = regexp.MustCompile(`(?:msie |rv:)([\d.]+)`)
	operaVersionRe   = regexp.MustCompile(`(?:opera|opr)/([\d.]+)`)
	macVersionRe     = regexp.MustCompile(`mac os x ([\d_.]+)`)
	androidVersionRe = regexp.MustCompile(`android ([\d.]+)`)
	iosVersionRe     = regexp.MustCompile(`os ([\d_]+)`)
)

// ParseUserAgent classifies a raw user-agent header into browser, OS, and
// form factor. Pure function: unknown or empty input yields "Unknown" fields,
// never an error.
func ParseUserAgent(userAgent string) DeviceInfo {
	result := DeviceInfo{
		Browser: "Unknown",
		OS:      "Unknown",
		Device:  "Unknown",
	}

	if userAgent == "" {
		return result
	}

	ua := strings.ToLower(userAgent)

	// Browser. Order matters: Edge and Opera embed "chrome", Chrome embeds
	// "safari".
	switch {
	case strings.Contains(ua, "firefox"):
		result.Browser = "Firefox"
		result.BrowserVersion = firstSubmatch(firefoxVersionRe, ua)
	case strings.Contains(ua, "edg"):
		result.Browser = "Edge"
		result.BrowserVersion = firstSubmatch(edgeVersionRe, ua)
	case strings.Contains(ua, "opera"), strings.Contains(ua, "opr"):
		result.Browser = "Opera"
		result.BrowserVersion = firstSubmatch(operaVersionRe, ua)
	case strings.Contains(ua, "chrome"):
		result.Browser = "Chrome"
		result.BrowserVersion = firstSubmatch(chromeVersionRe, ua)
	case strings.Contains(ua, "safari"):
		result.Browser = "Safari"
		result.BrowserVersion = firstSubmatch(safariVersionRe, ua)
	case strings.Contains(ua, "msie"), strings.Contains(ua, "trident"):
		result.Browser = "Internet Explorer"
		result.BrowserVersion = firstSubmatch(ieVersionRe, ua)
	}

	// Operating system
	switch {
	case strings.Contains(ua, "windows"):
		result.OS = "Windows"
		switch {
		case strings.Contains(ua, "windows nt 10"):
			result.OSVersion = "10"
		case strings.Contains(ua, "windows nt 6.3"):
			result.OSVersion = "8.1"
		case strings.Contains(ua, "windows nt 6.2"):
			result.OSVersion = "8"
		case strings.Contains(ua, "windows nt 6.1"):
			result.OSVersion = "7"
		}
	case strings.Contains(ua, "macintosh"), strings.Contains(ua, "mac os x"):
		result.OS = "macOS"
		result.OSVersion = strings.ReplaceAll(firstSubmatch(macVersionRe, ua), "_", ".")
	case strings.Contains(ua, "android"):
		result.OS = "Android"
		result.OSVersion = firstSubmatch(androidVersionRe, ua)
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ipod"):
		result.OS = "iOS"
		result.OSVersion = strings.ReplaceAll(firstSubmatch(iosVersionRe, ua), "_", ".")
	case strings.Contains(ua, "linux"):
		result.OS = "Linux"
	}

	// Form factor
	switch {
	case strings.Contains(ua, "tablet"), strings.Contains(ua, "ipad"):
		result.Device = result.OS + " Tablet"
		result.IsTablet = true
	case strings.Contains(ua, "mobile"),
		strings.Contains(ua, "iphone"),
		strings.Contains(ua, "ipod"),
		strings.Contains(ua, "android"):
		result.Device = result.OS
		result.IsMobile = true
	default:
		result.Device = "Desktop"
		result.IsDesktop = true
	}

	return result
}

// FormatDeviceInfo renders device info as a display string, e.g.
// "Chrome 120.0 on Windows 10" or "Safari on iOS".
func FormatDeviceInfo(info DeviceInfo) string {
	browser := info.Browser
	if info.BrowserVersion != "" {
		browser = info.Browser + " " + info.BrowserVersion
	}

	os := info.OS
	if info.OSVersion != "" && info.OS != "Unknown" {
		os = info.OS + " " + info.OSVersion
	}

	if info.IsMobile || info.IsTablet {
		return browser + " on " + info.Device
	}
	return browser + " on " + os
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	match := re.FindStringSubmatch(s)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}
