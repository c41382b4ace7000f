package annotation

import "strings"

// StripUnterminated removes a trailing annotation that has been opened but
// not closed yet, i.e. everything from the last "[" without a following "]".
func StripUnterminated(text string) string {
	open := strings.LastIndexByte(text, '[')
	if open == -1 {
		return text
	}
	if strings.IndexByte(text[open:], ']') != -1 {
		return text
	}
	return text[:open]
}

// StripAnnotations replaces every closed annotation with its label.
func StripAnnotations(text string) string {
	text = reRelationship.ReplaceAllString(text, "${1}")
	return reEntity.ReplaceAllString(text, "${1}")
}

// StreamStripper removes annotations from a stream of text deltas. Text is
// held back while an annotation is open and emitted once it is closed.
type StreamStripper struct {
	buffer string
}

// Consume adds chunk to the stream and emits all text that can no longer
// become part of an annotation.
func (p *StreamStripper) Consume(chunk string, onContent func(string) error) error {
	p.buffer += chunk

	emit := func(content string) error {
		if content == "" {
			return nil
		}
		return onContent(content)
	}

	for {
		start := strings.IndexByte(p.buffer, '[')
		if start == -1 {
			if err := emit(p.buffer); err != nil {
				return err
			}
			p.buffer = ""
			return nil
		}

		if start > 0 {
			if err := emit(p.buffer[:start]); err != nil {
				return err
			}
			p.buffer = p.buffer[start:]
		}

		end := strings.IndexByte(p.buffer, ']')
		if end == -1 {
			return nil
		}

		// "[" that is never closed before another annotation starts
		if inner := strings.LastIndexByte(p.buffer[:end], '['); inner > 0 {
			if err := emit(p.buffer[:inner]); err != nil {
				return err
			}
			p.buffer = p.buffer[inner:]
			continue
		}

		if err := emit(StripAnnotations(p.buffer[:end+1])); err != nil {
			return err
		}
		p.buffer = p.buffer[end+1:]
	}
}

// Flush emits whatever is still buffered.
func (p *StreamStripper) Flush(onContent func(string) error) error {
	if p.buffer == "" {
		return nil
	}

	if err := onContent(p.buffer); err != nil {
		return err
	}

	p.buffer = ""
	return nil
}
