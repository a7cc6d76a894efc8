package stream

import (
	"context"
	"errors"
	"strings"

	"ganaterm/pkg/ai"
)

// ErrEmptyResponse is returned when a stream finishes without any text.
var ErrEmptyResponse = errors.New("empty response")

// Sink receives each fragment as soon as it arrives.
type Sink func(fragment string)

// Aggregate drains s, forwarding fragments to sink, and returns the
// concatenated text. The stream is always closed.
//
// A stream that fails after producing data returns the partial text together
// with the error. A stream that finishes cleanly with only whitespace returns
// ErrEmptyResponse.
func Aggregate(ctx context.Context, s ai.ChatStream, sink Sink) (string, error) {
	defer s.Close()

	var sb strings.Builder
	for s.Next() {
		if err := ctx.Err(); err != nil {
			return sb.String(), err
		}
		fragment := s.Content()
		if fragment == "" {
			continue
		}
		sb.WriteString(fragment)
		if sink != nil {
			sink(fragment)
		}
	}

	text := sb.String()
	if err := s.Err(); err != nil {
		return text, err
	}
	if err := ctx.Err(); err != nil {
		return text, err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
