package record

// Stream is a lazily-produced sequence of result values. Streaming
// printers pull values one at a time so rows already produced are
// flushed before a later value fails; buffering printers drain the
// stream up front and emit nothing on failure.
type Stream struct {
	next    func() (any, bool, error)
	peeked  []any
	done    bool
	lastErr error
}

// NewStream creates a Stream backed by next. next returns the following
// value, false when the sequence is exhausted, or a non-nil error which
// permanently aborts iteration.
func NewStream(next func() (any, bool, error)) *Stream {
	return &Stream{next: next}
}

// StreamOf creates a Stream over a fixed slice of values.
func StreamOf(values ...any) *Stream {
	i := 0

	return NewStream(func() (any, bool, error) {
		if i >= len(values) {
			return nil, false, nil
		}

		v := values[i]
		i++

		return v, true, nil
	})
}

// Next returns the next value in the stream. ok is false once the
// stream is exhausted or a previous call returned an error.
func (s *Stream) Next() (v any, ok bool, err error) {
	if len(s.peeked) > 0 {
		v = s.peeked[0]
		s.peeked = s.peeked[1:]

		return v, true, nil
	}

	if s.done {
		return nil, false, s.lastErr
	}

	v, ok, err = s.next()
	if err != nil || !ok {
		s.done = true
		s.lastErr = err

		return nil, false, err
	}

	return v, true, nil
}

// Peek returns up to n leading values without consuming them.
func (s *Stream) Peek(n int) ([]any, error) {
	for len(s.peeked) < n && !s.done {
		v, ok, err := s.next()
		if err != nil {
			s.done = true
			s.lastErr = err

			return s.peeked, err
		}

		if !ok {
			s.done = true

			break
		}

		s.peeked = append(s.peeked, v)
	}

	if len(s.peeked) < n {
		return s.peeked, nil
	}

	return s.peeked[:n], nil
}

// Collect drains the stream into a slice.
func (s *Stream) Collect() ([]any, error) {
	var values []any

	for {
		v, ok, err := s.Next()
		if err != nil {
			return values, err
		}

		if !ok {
			return values, nil
		}

		values = append(values, v)
	}
}
