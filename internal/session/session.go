// Package session models per-user auth state as an explicit value handed to
// call sites, rather than a process-wide current-user holder.
package session

import "context"

// TokenSource yields the bearer token for backend calls. Fetching is
// per-call so a refreshed credential is picked up mid-sequence.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static is a fixed token, typically lifted from an incoming request's
// Authorization header.
type Static string

func (s Static) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// Session identifies an authenticated user for a sequence of related calls.
// A nil Session means anonymous: no bearer header is attached.
type Session struct {
	UserID string
	Source TokenSource
}

func (s *Session) Token(ctx context.Context) (string, error) {
	if s == nil || s.Source == nil {
		return "", nil
	}
	return s.Source.Token(ctx)
}
