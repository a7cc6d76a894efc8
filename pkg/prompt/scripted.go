package prompt

import (
	"context"
)

// Scripted replays recorded answers. Decide and ReadLine consume the same
// queue, in order.
type Scripted struct {
	Answers []string

	// Asked records every question and ReadLine label seen.
	Asked []string
}

// NewScripted returns a source that answers with answers in order.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{Answers: answers}
}

func (s *Scripted) next() (string, error) {
	if len(s.Answers) == 0 {
		return "", ErrNoAnswer
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}

func (s *Scripted) Decide(ctx context.Context, q Question) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	s.Asked = append(s.Asked, q.Label)
	answer, err := s.next()
	if err != nil {
		return Decision{}, err
	}
	return resolveRename(ctx, s, ParseAnswer(q, answer))
}

func (s *Scripted) ReadLine(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.Asked = append(s.Asked, label)
	return s.next()
}

var (
	_ Source = (*Scripted)(nil)
	_ Source = (*Terminal)(nil)
)
