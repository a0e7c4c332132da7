package domain

// CallerKind is the rate-limit tier a request is billed to.
type CallerKind string

const (
	CallerAnonymous CallerKind = "anonymous"
	CallerUser      CallerKind = "user"
	CallerAPIKey    CallerKind = "apikey"
)

func (k CallerKind) IsValid() bool {
	switch k {
	case CallerAnonymous, CallerUser, CallerAPIKey:
		return true
	}
	return false
}

func (k CallerKind) String() string {
	return string(k)
}

// Caller identifies who is making a request. ID is the client IP for
// anonymous callers, the user id for users and the key id for API keys.
// OwnerID is the user an API key belongs to.
type Caller struct {
	Kind    CallerKind
	ID      string
	OwnerID UserID
	IP      string
}

// Identified reports whether the caller presented a credential.
func (c Caller) Identified() bool {
	return c.Kind == CallerUser || c.Kind == CallerAPIKey
}

func AnonymousCaller(ip string) Caller {
	return Caller{Kind: CallerAnonymous, ID: ip, IP: ip}
}
