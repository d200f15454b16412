package agent

import (
	"context"
	"errors"
	"fmt"
	"io"

	"riverai-be/internal/apperror"
	"riverai-be/pkg/agent/reference"
)

// OutputChunk is one normalized unit of streamed output. At least one
// field is always non-empty.
type OutputChunk struct {
	Content    string                   `json:"content,omitempty"`
	References []map[string]interface{} `json:"references,omitempty"`
	Citations  []map[string]interface{} `json:"citations,omitempty"`
}

// Assemble drains the event source on its own goroutine and delivers
// chunks over a bounded channel. The channel holds at most one chunk,
// so a slow consumer blocks the producer instead of buffering.
//
// The chunk channel is closed when the source terminates. The error
// channel then carries at most one value: an UpstreamStream error if
// the source failed, nothing on natural completion. Cancelling the
// context abandons the run.
func Assemble(ctx context.Context, source EventSource) (<-chan OutputChunk, <-chan error) {
	chunks := make(chan OutputChunk, 1)
	errc := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errc)

		for {
			ev, err := source.Next(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				if errors.Is(err, context.Canceled) {
					return
				}
				errc <- apperror.UpstreamStream(err)
				return
			}

			chunk, ok := chunkFromEvent(ev)
			if !ok {
				continue
			}

			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, errc
}

// chunkFromEvent converts one event into a chunk. Events that produce
// no non-empty field are dropped, as are events that cannot be coerced
// to text. A malformed event never aborts the stream.
func chunkFromEvent(ev Event) (OutputChunk, bool) {
	switch ev.Kind {
	case KindText:
		chunk := OutputChunk{Content: ev.Content}
		if len(ev.References) > 0 {
			if refs := reference.Normalize(ev.References); len(refs) > 0 {
				chunk.References = refs
			}
		}
		if len(ev.Citations) > 0 {
			if cits := reference.NormalizeCitations(ev.Citations); len(cits) > 0 {
				chunk.Citations = cits
			}
		}
		if chunk.Content == "" && chunk.References == nil && chunk.Citations == nil {
			return OutputChunk{}, false
		}
		return chunk, true

	case KindRaw:
		if text, ok := coerceText(ev.Raw); ok && text != "" {
			return OutputChunk{Content: text}, true
		}
		return OutputChunk{}, false

	default:
		return OutputChunk{}, false
	}
}

func coerceText(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	case []byte:
		return string(t), true
	default:
		return "", false
	}
}
