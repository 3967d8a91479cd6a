package domain

// PushMessage is the payload of one multicast send.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

type PushOutcome string

const (
	OutcomeDelivered      PushOutcome = "delivered"
	OutcomeInvalidToken   PushOutcome = "invalid_token"
	OutcomeTransientError PushOutcome = "transient_error"
)

// TokenResult is the gateway's verdict for one token of a multicast.
type TokenResult struct {
	Token   string
	Outcome PushOutcome
	Err     error
}
