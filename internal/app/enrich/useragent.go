package enrich

import (
	"strings"

	"github.com/mileusna/useragent"
	"github.com/x-way/crawlerdetect"
)

// Agent is the parsed descriptor set of a raw User-Agent string. Unknown
// fields stay empty.
type Agent struct {
	BrowserName    string
	BrowserVersion string
	BrowserMajor   string
	EngineName     string
	OSName         string
	OSVersion      string
	DeviceType     string
	DeviceVendor   string
	DeviceModel    string
	CPUArch        string
	Bot            bool
}

// AgentParser parses user agents and classifies crawlers. Construct once and
// share; the crawler signature set is compiled at construction time.
type AgentParser struct {
	crawlers *crawlerdetect.CrawlerDetect
}

func NewAgentParser() *AgentParser {
	return &AgentParser{crawlers: crawlerdetect.New()}
}

// Parse decomposes raw into browser/engine/OS/device/CPU descriptors and
// flags maintained bot signatures.
func (p *AgentParser) Parse(raw string) Agent {
	ua := useragent.Parse(raw)

	agent := Agent{
		BrowserName:    ua.Name,
		BrowserVersion: ua.Version,
		BrowserMajor:   majorVersion(ua.Version),
		EngineName:     engineFor(ua.Name),
		OSName:         ua.OS,
		OSVersion:      ua.OSVersion,
		DeviceType:     deviceType(ua),
		DeviceVendor:   deviceVendor(ua, raw),
		DeviceModel:    ua.Device,
		CPUArch:        cpuArch(raw),
		Bot:            ua.Bot || p.crawlers.IsCrawler(raw),
	}
	return agent
}

func majorVersion(version string) string {
	if version == "" {
		return ""
	}
	if i := strings.IndexByte(version, '.'); i > 0 {
		return version[:i]
	}
	return version
}

// engineFor maps a browser family to its rendering engine. The UA library
// does not expose the engine token directly, so this mirrors the stable
// browser/engine pairings.
func engineFor(browser string) string {
	switch browser {
	case useragent.Firefox:
		return "Gecko"
	case useragent.Safari:
		return "WebKit"
	case useragent.Chrome, useragent.Edge, useragent.Opera, useragent.OperaMini, useragent.Vivaldi:
		return "Blink"
	case useragent.InternetExplorer:
		return "Trident"
	case "":
		return ""
	default:
		return ""
	}
}

func deviceType(ua useragent.UserAgent) string {
	switch {
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	case ua.Desktop:
		return "desktop"
	default:
		return ""
	}
}

// deviceVendor derives the hardware vendor. Apple ties to the OS; Android
// vendors only show up as raw UA tokens.
func deviceVendor(ua useragent.UserAgent, raw string) string {
	switch ua.OS {
	case useragent.IOS, useragent.MacOS:
		return "Apple"
	}

	s := strings.ToLower(raw)
	vendors := []struct {
		token  string
		vendor string
	}{
		{"samsung", "Samsung"},
		{"sm-", "Samsung"},
		{"huawei", "Huawei"},
		{"xiaomi", "Xiaomi"},
		{"redmi", "Xiaomi"},
		{"oneplus", "OnePlus"},
		{"pixel", "Google"},
		{"oppo", "OPPO"},
		{"vivo", "vivo"},
		{"motorola", "Motorola"},
		{"moto ", "Motorola"},
	}
	for _, v := range vendors {
		if strings.Contains(s, v.token) {
			return v.vendor
		}
	}
	return ""
}

func cpuArch(raw string) string {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "x86_64"), strings.Contains(s, "x86-64"),
		strings.Contains(s, "amd64"), strings.Contains(s, "win64"),
		strings.Contains(s, "wow64"), strings.Contains(s, "x64"):
		return "amd64"
	case strings.Contains(s, "aarch64"), strings.Contains(s, "arm64"):
		return "arm64"
	case strings.Contains(s, "arm"):
		return "arm"
	case strings.Contains(s, "i686"), strings.Contains(s, "i386"), strings.Contains(s, "x86"):
		return "ia32"
	case strings.Contains(s, "ppc"):
		return "ppc"
	default:
		return ""
	}
}
