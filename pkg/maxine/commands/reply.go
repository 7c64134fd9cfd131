package commands

import "context"

// Reply is the transport-independent response to a command.
type Reply struct {
	Content string
	Embeds  []*Embed
	Files   []*File

	// Ephemeral asks the transport to show the reply only to the caller,
	// where supported.
	Ephemeral bool
}

// Embed is a rich card with optional fields and image.
type Embed struct {
	Title       string
	Description string
	Fields      []EmbedField
	ImageURL    string
	Colour      int
	Footer      string
}

// EmbedField is a name/value row inside an embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// AddField appends a non-inline field and returns the embed for chaining.
func (e *Embed) AddField(name, value string) *Embed {
	e.Fields = append(e.Fields, EmbedField{Name: name, Value: value})
	return e
}

// File is an attachment sent with a reply.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Text builds a plain-text reply.
func Text(content string) *Reply {
	return &Reply{Content: content}
}

// EmbedReply builds a reply holding a single embed.
func EmbedReply(e *Embed) *Reply {
	return &Reply{Embeds: []*Embed{e}}
}

// Responder delivers replies for a single invocation. Transports implement
// it; the dispatcher calls Defer at most once and Respond exactly once.
type Responder interface {
	// Defer acknowledges the invocation before the final reply is ready.
	Defer(ctx context.Context) error

	// Respond sends the final reply, as a follow-up if Defer was called.
	Respond(ctx context.Context, reply *Reply) error
}

// DeferReporter is implemented by responders that can defer on their own,
// for example when the transport would otherwise drop a slow invocation.
// The dispatcher checks it before sending an error reply, since an
// ephemeral reply cannot follow a public deferral.
type DeferReporter interface {
	Deferred() bool
}

// discardResponder drops replies. Used when an Invocation has no Responder.
type discardResponder struct{}

func (discardResponder) Defer(context.Context) error { return nil }
func (discardResponder) Respond(context.Context, *Reply) error { return nil }
