package application

import "testing"

func TestBotFilter_IsBot(t *testing.T) {
	f := NewBotFilter()

	bots := []string{
		"Googlebot/2.1 (+http://www.google.com/bot.html)",
		"Mozilla/5.0 (compatible; bingbot/2.0)",
		"facebookexternalhit/1.1",
		"Mozilla/5.0 (X11; Linux x86_64) HeadlessChrome/120.0",
		"curl/8.4.0",
		"python-requests/2.31",
		"Go-http-client/1.1",
		"Baiduspider",
		"WhatsApp/2.23",
	}
	for _, ua := range bots {
		if !f.IsBot(ua) {
			t.Fatalf("expected %q to be classified as bot", ua)
		}
	}

	humans := []string{
		"",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148",
	}
	for _, ua := range humans {
		if f.IsBot(ua) {
			t.Fatalf("did not expect %q to be classified as bot", ua)
		}
	}
}

func TestBotFilter_ExtraSignatures(t *testing.T) {
	f := NewBotFilter("  UptimeRobotish ", "")
	if !f.IsBot("Mozilla/5.0 uptimerobotish/1.0") {
		t.Fatalf("expected extra signature to match case-insensitively")
	}
}

func TestBotFilter_ZeroValueUsesDefaults(t *testing.T) {
	var f BotFilter
	if !f.IsBot("AhrefsBot/7.0") {
		t.Fatalf("expected zero-value filter to use default signatures")
	}
}
