package application

import "strings"

// DefaultBotSignatures são comparadas sem diferenciar maiúsculas, como substrings do
// User-Agent. Mantenha-as específicas: um falso positivo descarta uma view real em silêncio.
var DefaultBotSignatures = []string{
	"bot",
	"crawl",
	"spider",
	"slurp",
	"facebookexternalhit",
	"embedly",
	"quora link preview",
	"whatsapp",
	"headlesschrome",
	"python-requests",
	"curl/",
	"wget/",
	"go-http-client",
}

type BotFilter struct {
	signatures []string
}

// NewBotFilter retorna um filtro com as assinaturas padrão mais extra.
func NewBotFilter(extra ...string) BotFilter {
	sigs := make([]string, 0, len(DefaultBotSignatures)+len(extra))
	sigs = append(sigs, DefaultBotSignatures...)
	for _, s := range extra {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			sigs = append(sigs, s)
		}
	}
	return BotFilter{signatures: sigs}
}

// IsBot informa se userAgent parece tráfego automatizado.
// Um User-Agent vazio não é conclusivo e passa.
func (f BotFilter) IsBot(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	sigs := f.signatures
	if sigs == nil {
		sigs = DefaultBotSignatures
	}
	ua := strings.ToLower(userAgent)
	for _, sig := range sigs {
		if strings.Contains(ua, sig) {
			return true
		}
	}
	return false
}
