package credential

import (
	"log/slog"

	apperrors "github.com/allisson/sessions/internal/errors"
)

// Store reconciles a session token across an ordered list of channels.
// Channel order encodes trust: earlier channels win on read, and their value
// is back-filled into later channels that were empty. A channel holding a
// different non-empty token is never overwritten during reconciliation; only
// an explicit StoreToken replaces values everywhere.
type Store struct {
	channels []Channel
	logger   *slog.Logger
}

// NewStore creates a Store over the given channels. Order matters: pass the
// most durable channel first.
func NewStore(logger *slog.Logger, channels ...Channel) *Store {
	return &Store{
		channels: channels,
		logger:   logger,
	}
}

// Record is the outcome of a reconciling read.
type Record struct {
	// Token is the winning token, "" when every channel was empty.
	Token string
	// SourceChannel names the channel the token came from.
	SourceChannel string
	// Authenticated reports whether a token was found at all.
	Authenticated bool
}

// Read returns the first token found in channel order, reconciling empty
// channels with the winning value. The record names the channel that won.
func (s *Store) Read() Record {
	var record Record
	var empty []Channel

	for _, channel := range s.channels {
		value, err := channel.Read()
		if err != nil {
			s.logger.Warn("credential channel read failed",
				slog.String("channel", channel.Name()),
				slog.Any("error", err))
			continue
		}
		if value == "" {
			empty = append(empty, channel)
			continue
		}
		if record.Token == "" {
			record = Record{
				Token:         value,
				SourceChannel: channel.Name(),
				Authenticated: true,
			}
		}
	}

	if record.Token == "" {
		return record
	}

	for _, channel := range empty {
		if err := channel.Write(record.Token); err != nil {
			s.logger.Warn("credential channel back-fill failed",
				slog.String("channel", channel.Name()),
				slog.Any("error", err))
		}
	}

	return record
}

// GetToken returns the reconciled token, "" when every channel is empty.
func (s *Store) GetToken() string {
	return s.Read().Token
}

// StoreToken writes the token to every channel. Partial failures are logged
// and tolerated; the call errors only when no channel accepted the token.
func (s *Store) StoreToken(token string) error {
	if token == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "token is required")
	}

	stored := 0
	for _, channel := range s.channels {
		if err := channel.Write(token); err != nil {
			s.logger.Warn("credential channel write failed",
				slog.String("channel", channel.Name()),
				slog.Any("error", err))
			continue
		}
		stored++
	}

	if stored == 0 {
		return apperrors.New("no credential channel accepted the token")
	}
	return nil
}

// ClearToken removes the token from every channel. Clearing is best-effort
// and idempotent; failures are logged, and the last error is returned so
// callers can surface that a copy may remain.
func (s *Store) ClearToken() error {
	var lastErr error
	for _, channel := range s.channels {
		if err := channel.Clear(); err != nil {
			s.logger.Warn("credential channel clear failed",
				slog.String("channel", channel.Name()),
				slog.Any("error", err))
			lastErr = err
		}
	}
	return lastErr
}

// IsAuthenticated reports whether any channel holds a token. It says nothing
// about whether the server still accepts it.
func (s *Store) IsAuthenticated() bool {
	return s.Read().Authenticated
}
