package agent

import "context"

// Kind classifies one upstream agent emission. The union is resolved
// once at the source boundary so downstream code never probes shapes.
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindRaw
)

// Event is one emission from an agent run. A text event may carry
// reference and citation payloads alongside its content.
type Event struct {
	Kind       Kind
	Content    string
	References []interface{}
	Citations  []interface{}
	Raw        interface{} // original payload for KindRaw / KindUnknown
}

// EventSource produces an ordered, finite sequence of events.
// Next returns io.EOF after the last event. A source is not
// restartable; each run requires a fresh source.
type EventSource interface {
	Next(ctx context.Context) (Event, error)
}

// Resolve classifies an arbitrary upstream payload into an Event.
// Strings become text; maps with a content/references/citations shape
// become text events with attachments; everything else is raw.
func Resolve(v interface{}) Event {
	switch p := v.(type) {
	case Event:
		return p
	case string:
		return Event{Kind: KindText, Content: p}
	case map[string]interface{}:
		ev := Event{Kind: KindText}
		if c, ok := p["content"].(string); ok {
			ev.Content = c
		}
		if refs, ok := p["references"].([]interface{}); ok {
			ev.References = refs
		}
		if cits, ok := p["citations"].([]interface{}); ok {
			ev.Citations = cits
		}
		if ev.Content == "" && ev.References == nil && ev.Citations == nil {
			return Event{Kind: KindUnknown, Raw: v}
		}
		return ev
	default:
		return Event{Kind: KindRaw, Raw: v}
	}
}
