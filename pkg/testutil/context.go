package testutil

import (
	"net/http"

	id "rfcheck/pkg/domain"
	"rfcheck/pkg/requestcontext"
)

// WithUserID marks the request as coming from a bearer-token user, as the
// identity middleware does. Invalid UUIDs leave the request anonymous.
func WithUserID(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	ctx := requestcontext.WithUserID(req.Context(), parsed)
	ctx = requestcontext.WithCaller(ctx, id.Caller{
		Kind:    id.CallerUser,
		ID:      parsed.String(),
		OwnerID: parsed,
		IP:      requestcontext.ClientIP(ctx),
	})
	return req.WithContext(ctx)
}

// WithAPIKey marks the request as authenticated by an API key owned by userID.
func WithAPIKey(req *http.Request, keyID, userID string) *http.Request {
	owner, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	key, err := id.ParseAPIKeyID(keyID)
	if err != nil {
		return req
	}
	ctx := requestcontext.WithUserID(req.Context(), owner)
	ctx = requestcontext.WithAPIKeyID(ctx, key)
	ctx = requestcontext.WithCaller(ctx, id.Caller{
		Kind:    id.CallerAPIKey,
		ID:      key.String(),
		OwnerID: owner,
		IP:      requestcontext.ClientIP(ctx),
	})
	return req.WithContext(ctx)
}

// WithClientIP sets the client IP as the metadata middleware would.
func WithClientIP(req *http.Request, ip string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, req.UserAgent()))
}
