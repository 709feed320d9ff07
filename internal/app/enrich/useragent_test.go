package enrich

import "testing"

const chromeLinuxUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestAgentParser_Browser(t *testing.T) {
	agent := NewAgentParser().Parse(chromeLinuxUA)

	if agent.BrowserName != "Chrome" {
		t.Fatalf("expected Chrome, got %q", agent.BrowserName)
	}
	if agent.BrowserMajor != "120" {
		t.Fatalf("expected major 120, got %q", agent.BrowserMajor)
	}
	if agent.EngineName != "Blink" {
		t.Fatalf("expected Blink engine, got %q", agent.EngineName)
	}
	if agent.OSName != "Linux" {
		t.Fatalf("expected Linux, got %q", agent.OSName)
	}
	if agent.CPUArch != "amd64" {
		t.Fatalf("expected amd64, got %q", agent.CPUArch)
	}
	if agent.DeviceType != "desktop" {
		t.Fatalf("expected desktop, got %q", agent.DeviceType)
	}
	if agent.Bot {
		t.Fatal("regular browser must not be flagged as bot")
	}
}

func TestAgentParser_Bot(t *testing.T) {
	parser := NewAgentParser()
	agent := parser.Parse("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")

	if !agent.Bot {
		t.Fatal("expected Googlebot to be flagged as bot")
	}
}

func TestAgentParser_DeviceVendor(t *testing.T) {
	parser := NewAgentParser()

	cases := []struct {
		ua     string
		vendor string
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", "Apple"},
		{"Mozilla/5.0 (Linux; Android 14; SM-S918B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36", "Samsung"},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36", "Google"},
		{chromeLinuxUA, ""},
	}
	for _, tc := range cases {
		if got := parser.Parse(tc.ua).DeviceVendor; got != tc.vendor {
			t.Errorf("vendor for %q = %q, want %q", tc.ua, got, tc.vendor)
		}
	}
}

func TestAgentParser_EmptyInput(t *testing.T) {
	agent := NewAgentParser().Parse("")

	if agent.BrowserName != "" || agent.OSName != "" || agent.DeviceType != "" {
		t.Fatalf("expected empty descriptors, got %+v", agent)
	}
}
