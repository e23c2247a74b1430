package controller

import (
	"log/slog"
)

// RequestKind is the provider operation a request invokes.
type RequestKind string

const (
	RequestSignIn    RequestKind = "sign-in"
	RequestSignUp    RequestKind = "sign-up"
	RequestFederated RequestKind = "federated"
)

// Request is one provider call. ID ties the settlement back to the
// submission that started it.
type Request struct {
	ID         uint64
	Kind       RequestKind
	Email      string
	Password   string
	ProviderID string
	Control    Control
}

// LogValue keeps the password out of logs.
func (r Request) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Uint64("id", r.ID),
		slog.String("kind", string(r.Kind)),
		slog.String("control", string(r.Control)),
	}
	if r.Email != "" {
		attrs = append(attrs, slog.String("email", r.Email))
	}
	if r.ProviderID != "" {
		attrs = append(attrs, slog.String("provider", r.ProviderID))
	}
	return slog.GroupValue(attrs...)
}
