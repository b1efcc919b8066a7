package docextract

import (
	"context"
	"errors"
	"fmt"
)

// checkSize rejects buffers above the configured cap. It runs before any
// parsing is attempted.
func (e *Extractor) checkSize(buf []byte, format Format) error {
	if int64(len(buf)) > e.cfg.MaxInputSize {
		return newError(ErrOversizedInput, format, nil,
			"%d bytes exceeds limit of %d", len(buf), e.cfg.MaxInputSize)
	}
	return nil
}

type outcome[T any] struct {
	val T
	err error
}

// withDeadline runs fn under the configured wall-clock budget. The caller
// gets ErrTimedOut as soon as the deadline passes; fn observes ctx and
// stops at its next cancellation check, and its late result is dropped.
func withDeadline[T any](ctx context.Context, e *Extractor, format Format, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		var out outcome[T]
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("docextract: parser panic", "format", format, "panic", r)
				out.err = newError(ErrCorruptArchive, format, nil, "malformed input: %v", r)
			}
			done <- out
		}()
		out.val, out.err = fn(ctx)
	}()

	var zero T
	select {
	case out := <-done:
		if out.err != nil && ctx.Err() != nil && !isKnownKind(out.err) {
			return zero, timeoutError(ctx, e, format)
		}
		return out.val, out.err
	case <-ctx.Done():
		return zero, timeoutError(ctx, e, format)
	}
}

func timeoutError(ctx context.Context, e *Extractor, format Format) error {
	err := ctx.Err()
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("docextract: %w", err)
	}
	return newError(ErrTimedOut, format, err, "deadline of %s exceeded", e.cfg.Timeout)
}

func isKnownKind(err error) bool {
	return KindOf(err) != KindInternal
}
