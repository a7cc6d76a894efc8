// Package stream turns incremental model output into complete response text.
package stream

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"ganaterm/pkg/ai"

	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/tidwall/gjson"
)

var doneMarker = []byte("[DONE]")

// EventStream reads an OpenAI-style chat completion SSE body. Each data frame
// may carry choices[0].delta.content; frames that are not valid JSON or carry
// no content are skipped rather than failing the stream.
type EventStream struct {
	decoder ssestream.Decoder
	current string
	err     error
	done    bool
	skipped int
}

// NewEventStream wraps an HTTP response whose body is an event stream.
func NewEventStream(resp *http.Response) *EventStream {
	s := &EventStream{}
	if resp == nil || resp.Body == nil {
		s.done = true
		return s
	}
	s.decoder = ssestream.NewDecoder(resp)
	if s.decoder == nil {
		s.done = true
	}
	return s
}

// Next advances to the next non-empty content fragment.
func (s *EventStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for s.decoder.Next() {
		data := bytes.TrimSpace(s.decoder.Event().Data)
		if len(data) == 0 {
			continue
		}
		if bytes.Equal(data, doneMarker) {
			s.done = true
			return false
		}
		if !gjson.ValidBytes(data) {
			s.skipped++
			slog.Debug("sse_frame_skipped", "reason", "invalid_json", "bytes", len(data))
			continue
		}
		if msg := gjson.GetBytes(data, "error.message"); msg.Exists() {
			s.err = fmt.Errorf("stream error: %s", msg.String())
			return false
		}

		content := gjson.GetBytes(data, "choices.0.delta.content")
		if content.Type != gjson.String || content.Str == "" {
			continue
		}
		s.current = content.Str
		return true
	}

	s.err = s.decoder.Err()
	s.done = true
	return false
}

// Content returns the current fragment.
func (s *EventStream) Content() string {
	return s.current
}

// Err returns the transport error that ended the stream, if any.
func (s *EventStream) Err() error {
	return s.err
}

// Skipped reports how many malformed frames were ignored.
func (s *EventStream) Skipped() int {
	return s.skipped
}

// Close releases the response body.
func (s *EventStream) Close() error {
	s.done = true
	if s.decoder == nil {
		return nil
	}
	return s.decoder.Close()
}

var _ ai.ChatStream = (*EventStream)(nil)
