// Package history persists the conversation as one JSON object per line.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ganaterm/pkg/ai"
)

// legacyTimeLayout matches timestamps written by older ganaterm releases.
const legacyTimeLayout = "2006-01-02 15:04:05.999999"

const maxLineBytes = 4 << 20

var errLineTooLong = errors.New("history line too long")

type entry struct {
	Time    string `json:"time"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store appends to and replays a history file.
type Store struct {
	path string
}

// NewStore returns a store backed by path. The file is created on first Append.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Append writes msg as a single line.
func (s *Store) Append(msg ai.Message) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry{Time: ts.Format(time.RFC3339Nano), Role: msg.Role, Content: msg.Content}); err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Load rebuilds a conversation: the system message followed by every valid
// stored message in file order. Malformed lines are skipped and counted.
// A missing file yields a conversation holding only the system message.
func (s *Store) Load() (*ai.Conversation, int, error) {
	conv := ai.NewConversation()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return conv, 0, nil
		}
		return conv, 0, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	skipped := 0
	r := bufio.NewReaderSize(f, 64*1024)
	for lineNo := 1; ; lineNo++ {
		raw, err := readLine(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, errLineTooLong) {
			skipped++
			slog.Warn("history_line_skipped", "path", s.path, "line", lineNo, "reason", "too_long")
			continue
		}
		if err != nil {
			return conv, skipped, fmt.Errorf("read history: %w", err)
		}

		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		var e entry
		if err := json.Unmarshal(line, &e); err != nil || !replayable(e.Role) {
			skipped++
			slog.Warn("history_line_skipped", "path", s.path, "line", lineNo)
			continue
		}
		conv.Append(ai.Message{Role: e.Role, Content: e.Content, Timestamp: parseTime(e.Time)})
	}

	return conv, skipped, nil
}

// readLine returns the next line without its terminator. A line longer than
// maxLineBytes is consumed in full and reported as errLineTooLong, so the
// lines after it are still read.
func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		frag, isPrefix, err := r.ReadLine()
		if err != nil {
			return nil, err
		}
		if !tooLong {
			if len(line)+len(frag) > maxLineBytes {
				tooLong = true
				line = nil
			} else {
				line = append(line, frag...)
			}
		}
		if !isPrefix {
			if tooLong {
				return nil, errLineTooLong
			}
			return line, nil
		}
	}
}

func replayable(role string) bool {
	return role == ai.RoleUser || role == ai.RoleAssistant
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(legacyTimeLayout, s, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
