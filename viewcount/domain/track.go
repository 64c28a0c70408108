package domain

// Outcome de um request de tracking.
type Outcome string

const (
	Accepted Outcome = "accepted"
	// Declined é um request legítimo suprimido de propósito. Não é erro.
	Declined Outcome = "declined"
	Rejected Outcome = "rejected"
)

// Os códigos de reason fazem parte do contrato com os clientes instalados.
const (
	ReasonBot           = "bot"
	ReasonCookiePresent = "cookie_present"
	ReasonRateLimited   = "rate_limited"
)

type TrackRequest struct {
	ItemID        ItemID
	UserAgent     string
	MarkerPresent bool
	Identity      Identity
	Token         string
}

type TrackResult struct {
	Outcome Outcome
	// Views é a nova contagem, só em Accepted.
	Views int64
	// Reason é preenchido em Declined.
	Reason string
	// Err é preenchido em Rejected.
	Err error
}

func AcceptedResult(views int64) TrackResult { return TrackResult{Outcome: Accepted, Views: views} }

func DeclinedResult(reason string) TrackResult { return TrackResult{Outcome: Declined, Reason: reason} }

func RejectedResult(err error) TrackResult { return TrackResult{Outcome: Rejected, Err: err} }
