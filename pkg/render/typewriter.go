package render

import (
	"strings"
	"time"
)

// charDelay is the pause between characters for a typing speed in words per
// minute, counting five characters per word.
func charDelay(wpm int) time.Duration {
	if wpm <= 0 {
		wpm = defaultWPM
	}
	return time.Duration(float64(time.Minute) / float64(wpm*5))
}

// typewrite prints text one rune at a time. Inline code keeps its styling
// when markdown is on; each styled rune is emitted as its own span so the
// pause never lands inside an escape sequence.
func (r *Renderer) typewrite(text string) {
	delay := charDelay(r.opts.TypingSpeedWPM)
	style := r.inlineStyle()

	for _, seg := range splitInline(text, r.opts.UseMarkdown) {
		for _, ch := range seg.text {
			s := string(ch)
			if seg.code {
				s = style.Render(s)
			}
			r.write(s)
			r.Sleep(delay)
		}
	}
	r.write("\n")
}

type segment struct {
	text string
	code bool
}

// splitInline cuts text into prose and inline-code segments. Fenced lines
// and, when highlight is false, the whole text stay prose.
func splitInline(text string, highlight bool) []segment {
	if !highlight {
		return []segment{{text: text}}
	}

	var segs []segment
	lines := strings.SplitAfter(text, "\n")
	inFence := false
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			inFence = !inFence
			segs = append(segs, segment{text: l})
			continue
		}
		if inFence {
			segs = append(segs, segment{text: l})
			continue
		}

		last := 0
		for _, loc := range inlineCode.FindAllStringIndex(l, -1) {
			if isFenceFragment(l, l[loc[0]:loc[1]]) {
				continue
			}
			segs = append(segs, segment{text: l[last:loc[0]]}, segment{text: l[loc[0]:loc[1]], code: true})
			last = loc[1]
		}
		segs = append(segs, segment{text: l[last:]})
	}
	return segs
}
