package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
	"github.com/maxinebot/maxine/pkg/maxine/media"
	"github.com/maxinebot/maxine/pkg/maxine/prompts"
	"github.com/maxinebot/maxine/pkg/maxine/summarize"
	"github.com/maxinebot/maxine/pkg/maxine/webapi"
)

// --- fakes ---

type fakeWeb struct {
	cat, dog   string
	catErr     error
	definition *webapi.Definition
	defErr     error
	localTime  *webapi.LocalTime
	timeErr    error
	page       string
	pageErr    error
	results    []webapi.SearchResult
	searchOn   bool
	lastQuery  string
}

func (f *fakeWeb) RandomCat(context.Context) (string, error) { return f.cat, f.catErr }
func (f *fakeWeb) RandomDog(context.Context) (string, error) {
	if f.dog == "" {
		return "", webapi.ErrNoResult
	}
	return f.dog, nil
}
func (f *fakeWeb) Define(_ context.Context, term string) (*webapi.Definition, error) {
	f.lastQuery = term
	return f.definition, f.defErr
}
func (f *fakeWeb) TimeIn(_ context.Context, location string) (*webapi.LocalTime, error) {
	f.lastQuery = location
	return f.localTime, f.timeErr
}
func (f *fakeWeb) PageText(_ context.Context, url string) (string, error) {
	f.lastQuery = url
	return f.page, f.pageErr
}
func (f *fakeWeb) Search(_ context.Context, q string, limit int) ([]webapi.SearchResult, error) {
	f.lastQuery = q
	if len(f.results) == 0 {
		return nil, webapi.ErrNoResult
	}
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}
func (f *fakeWeb) SearchEnabled() bool { return f.searchOn }

type llmCall struct {
	strict         bool
	system, prompt string
}

type fakeLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []llmCall
}

func (f *fakeLLM) record(strict bool, system, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, llmCall{strict, system, prompt})
	return f.reply, f.err
}

func (f *fakeLLM) Generate(_ context.Context, system, prompt string) (string, error) {
	return f.record(false, system, prompt)
}

func (f *fakeLLM) GenerateStrict(_ context.Context, system, prompt string) (string, error) {
	return f.record(true, system, prompt)
}

type fakePrompts struct {
	data map[string]string
	err  error
}

func (f *fakePrompts) Get(_ context.Context, userID string) (*prompts.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.data[userID]
	if !ok {
		return nil, prompts.ErrNotFound
	}
	return &prompts.Record{UserID: userID, Prompt: p}, nil
}

func (f *fakePrompts) Upsert(_ context.Context, userID, prompt string) error {
	if f.err != nil {
		return f.err
	}
	f.data[userID] = prompt
	return nil
}

type fakeSaver struct {
	path string
	err  error
	req  media.Request
}

func (f *fakeSaver) Save(_ context.Context, req media.Request) (*media.Clip, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &media.Clip{Path: f.path}, nil
}

type recorder struct {
	deferred bool
	replies  []*commands.Reply
}

func (r *recorder) Defer(context.Context) error {
	r.deferred = true
	return nil
}

func (r *recorder) Respond(_ context.Context, reply *commands.Reply) error {
	r.replies = append(r.replies, reply)
	return nil
}

// --- harness ---

type harness struct {
	bot        *Bot
	dispatcher *commands.Dispatcher
	web        *fakeWeb
	llm        *fakeLLM
	prompts    *fakePrompts
	saver      *fakeSaver
	roles      *fakeRoles
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		web:     &fakeWeb{},
		llm:     &fakeLLM{},
		prompts: &fakePrompts{data: map[string]string{}},
		saver:   &fakeSaver{},
		roles:   newFakeRoles(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.bot = New(Deps{
		Web:          h.web,
		LLM:          h.llm,
		Summarizer:   &summarize.Summarizer{Generator: h.llm, MaxLen: FieldLimit, MaxAttempts: 3},
		Prompts:      h.prompts,
		Saver:        h.saver,
		Roles:        h.roles,
		SystemPrompt: "default prompt",
		Logger:       logger,
	})
	h.dispatcher = commands.New(logger)
	if err := h.bot.Register(h.dispatcher); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return h
}

var caller = commands.Caller{
	User:    commands.UserRef{ID: "100", Username: "alice", DisplayName: "Alice", AvatarURL: "https://cdn/alice.png"},
	GuildID: "g1",
}

func (h *harness) run(t *testing.T, name string, opts map[string]any) (*commands.Reply, *recorder, error) {
	t.Helper()
	return h.runWith(t, commands.Invocation{Name: name, Options: opts, Caller: caller})
}

func (h *harness) runWith(t *testing.T, inv commands.Invocation) (*commands.Reply, *recorder, error) {
	t.Helper()
	rec := &recorder{}
	inv.Responder = rec
	reply, err := h.dispatcher.Dispatch(context.Background(), inv)
	if len(rec.replies) != 1 {
		t.Fatalf("%s: expected exactly one reply, got %d", inv.Name, len(rec.replies))
	}
	return reply, rec, err
}

func onlyEmbed(t *testing.T, reply *commands.Reply) *commands.Embed {
	t.Helper()
	if reply == nil || len(reply.Embeds) != 1 {
		t.Fatalf("expected one embed, got %+v", reply)
	}
	e := reply.Embeds[0]
	if e.Footer != Footer {
		t.Errorf("footer = %q", e.Footer)
	}
	return e
}

// --- tests ---

func TestRegisterCommandTable(t *testing.T) {
	h := newHarness(t)

	want := []string{"ask", "translate", "tldrify message", "tldrify link", "prompt set", "prompt get",
		"avatar", "cat", "dog", "8ball", "urban", "time", "save", "setcolour", "help"}
	for _, name := range want {
		if _, ok := h.dispatcher.Lookup(name); !ok {
			t.Errorf("command %q not registered", name)
		}
	}
	if _, ok := h.dispatcher.Lookup("search"); ok {
		t.Error("search should not be registered without a search backend")
	}
	if s, ok := h.dispatcher.ContextMenu("Create TLDR"); !ok || s.Name != "tldrify message" {
		t.Errorf("context menu lookup failed: %+v", s)
	}
}

func TestSearchRegisteredWhenEnabled(t *testing.T) {
	web := &fakeWeb{searchOn: true, results: []webapi.SearchResult{
		{Title: "Go", Content: "The Go language", URL: "https://go.dev"},
	}}
	b := New(Deps{Web: web})
	d := commands.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := b.Register(d); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	reply, err := d.Dispatch(context.Background(), commands.Invocation{
		Name: "search", Options: map[string]any{"query": "golang"}, Caller: caller, Responder: rec,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	e := onlyEmbed(t, reply)
	if len(e.Fields) != 1 || e.Fields[0].Name != "Go" || !strings.Contains(e.Fields[0].Value, "https://go.dev") {
		t.Errorf("unexpected fields %+v", e.Fields)
	}
}

func TestEightBall(t *testing.T) {
	h := newHarness(t)
	for i := range EightBallAnswers {
		h.bot.pick = func(n int) int {
			if n != 13 {
				t.Fatalf("pick called with %d, want 13", n)
			}
			return i
		}
		reply, _, err := h.run(t, "8ball", map[string]any{"question": "Will it rain?"})
		if err != nil {
			t.Fatalf("8ball: %v", err)
		}
		e := onlyEmbed(t, reply)
		if e.Title != "Magic 8ball" || e.Fields[0].Name != "Alice asked" || e.Fields[0].Value != "Will it rain?" {
			t.Errorf("unexpected embed %+v", e)
		}
		if e.Fields[1].Name != "The 8ball says" || e.Fields[1].Value != EightBallAnswers[i] {
			t.Errorf("answer = %q, want %q", e.Fields[1].Value, EightBallAnswers[i])
		}
	}
}

func TestEightBallMissingQuestion(t *testing.T) {
	h := newHarness(t)
	called := false
	h.bot.pick = func(int) int {
		called = true
		return 0
	}

	_, _, err := h.run(t, "8ball", nil)
	if !errors.Is(err, commands.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	if called {
		t.Error("handler ran without its required option")
	}
}

func TestAvatar(t *testing.T) {
	h := newHarness(t)

	reply, _, err := h.run(t, "avatar", nil)
	if err != nil {
		t.Fatal(err)
	}
	if e := onlyEmbed(t, reply); e.Title != "Avatar for Alice" || e.ImageURL != "https://cdn/alice.png" {
		t.Errorf("unexpected embed %+v", e)
	}

	bob := commands.UserRef{ID: "200", Username: "bob", AvatarURL: "https://cdn/bob.png"}
	reply, _, err = h.run(t, "avatar", map[string]any{"user": bob})
	if err != nil {
		t.Fatal(err)
	}
	if e := onlyEmbed(t, reply); e.Title != "Avatar for bob" || e.ImageURL != "https://cdn/bob.png" {
		t.Errorf("unexpected embed %+v", e)
	}
}

func TestCatAndDog(t *testing.T) {
	h := newHarness(t)
	h.web.cat = "https://cdn/cat.jpg"

	reply, _, err := h.run(t, "cat", nil)
	if err != nil {
		t.Fatal(err)
	}
	if e := onlyEmbed(t, reply); e.Title != "Here's your cat!" || e.ImageURL != "https://cdn/cat.jpg" {
		t.Errorf("unexpected embed %+v", e)
	}

	h.web.catErr = webapi.ErrNoResult
	reply, _, err = h.run(t, "cat", nil)
	if err != nil || reply.Content != "Unable to fetch cat photo :(" {
		t.Errorf("empty cat list: reply %+v, err %v", reply, err)
	}

	reply, _, err = h.run(t, "dog", nil)
	if err != nil || reply.Content != "Unable to fetch dog photo :(" {
		t.Errorf("dog failure: reply %+v, err %v", reply, err)
	}
}

func TestUrban(t *testing.T) {
	h := newHarness(t)
	h.web.definition = &webapi.Definition{Word: "yeet", Definition: "to [throw] something"}

	reply, _, err := h.run(t, "urban", map[string]any{"query": "yeet"})
	if err != nil {
		t.Fatal(err)
	}
	e := onlyEmbed(t, reply)
	if e.Title != "Urban Dictionary: yeet" || e.Fields[0].Name != "Definition" || e.Fields[0].Value != "to throw something" {
		t.Errorf("unexpected embed %+v", e)
	}

	h.web.defErr = webapi.ErrNoResult
	reply, _, err = h.run(t, "urban", map[string]any{"query": "zzz"})
	if err != nil {
		t.Fatalf("no result should not be an error: %v", err)
	}
	if reply.Content != "No definition could be found." {
		t.Errorf("content = %q", reply.Content)
	}
}

func TestAskUsesStoredPrompt(t *testing.T) {
	tests := []struct {
		name       string
		stored     map[string]string
		useDefault bool
		wantPrefix string
	}{
		{"stored prompt", map[string]string{"100": "be a pirate"}, false, "be a pirate"},
		{"use default flag", map[string]string{"100": "be a pirate"}, true, "default prompt"},
		{"nothing stored", map[string]string{}, false, "default prompt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.prompts.data = tt.stored
			h.llm.reply = "<think>hmm</think>  Paris  "

			reply, rec, err := h.run(t, "ask", map[string]any{"query": "capital of France?", "use_default_prompt": tt.useDefault})
			if err != nil {
				t.Fatalf("ask: %v", err)
			}
			if !rec.deferred {
				t.Error("ask should defer")
			}
			if len(h.llm.calls) != 1 {
				t.Fatalf("expected one model call, got %d", len(h.llm.calls))
			}
			system := h.llm.calls[0].system
			if !strings.HasPrefix(system, tt.wantPrefix) ||
				!strings.Contains(system, "Make your response no longer than 1024 characters") ||
				!strings.Contains(system, "The users name is Alice") {
				t.Errorf("unexpected system prompt %q", system)
			}
			e := onlyEmbed(t, reply)
			if e.Fields[0].Name != "Alice asked" || e.Fields[1].Name != "Response" || e.Fields[1].Value != "Paris" {
				t.Errorf("unexpected embed %+v", e)
			}
		})
	}
}

func TestAskLongAnswerIsSummarized(t *testing.T) {
	h := newHarness(t)
	long := strings.Repeat("word ", 400)
	replies := []string{long, "short summary"}
	var calls int
	h.bot.deps.LLM = &scriptedLLM{fn: func() string {
		r := replies[min(calls, 1)]
		calls++
		return r
	}}
	h.bot.deps.Summarizer = &summarize.Summarizer{Generator: h.bot.deps.LLM, MaxLen: FieldLimit, MaxAttempts: 3}

	reply, _, err := h.run(t, "ask", map[string]any{"query": "essay please"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got := onlyEmbed(t, reply).Fields[1].Value; got != "short summary" {
		t.Errorf("response = %q", got)
	}
}

type scriptedLLM struct{ fn func() string }

func (s *scriptedLLM) Generate(context.Context, string, string) (string, error)       { return s.fn(), nil }
func (s *scriptedLLM) GenerateStrict(context.Context, string, string) (string, error) { return s.fn(), nil }

func TestAskModelFailure(t *testing.T) {
	h := newHarness(t)
	h.llm.err = errors.New("connection refused")

	reply, _, err := h.run(t, "ask", map[string]any{"query": "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if reply.Content != msgModelUnavailable {
		t.Errorf("content = %q", reply.Content)
	}
	if reply.Ephemeral {
		t.Error("errors after a defer are sent as follow-ups, not ephemeral")
	}
}

func TestTranslate(t *testing.T) {
	h := newHarness(t)
	h.llm.reply = "Sure!\n```json\n{\"input_language\": \"french\", \"translation\": \"Hello world\"}\n```"

	reply, rec, err := h.runWith(t, commands.Invocation{
		Name:   "translate",
		Caller: caller,
		Target: &commands.Message{ID: "m1", Content: "Bonjour le monde"},
	})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !rec.deferred {
		t.Error("translate should defer")
	}
	call := h.llm.calls[0]
	if !call.strict || call.prompt != "Detect what language and translate this into English: Bonjour le monde" {
		t.Errorf("unexpected call %+v", call)
	}
	e := onlyEmbed(t, reply)
	if e.Fields[0].Name != "LLM Translation from French to English" || e.Fields[0].Value != "Hello world" {
		t.Errorf("unexpected embed %+v", e)
	}
}

func TestTranslateBadOutput(t *testing.T) {
	h := newHarness(t)
	h.llm.reply = "I don't know."

	reply, _, err := h.runWith(t, commands.Invocation{
		Name: "translate", Caller: caller, Target: &commands.Message{Content: "Hola"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(reply.Content, "unexpected format") {
		t.Errorf("content = %q", reply.Content)
	}
}

func TestTldrMessage(t *testing.T) {
	h := newHarness(t)
	h.llm.reply = "<think>x</think>tiny"

	reply, _, err := h.runWith(t, commands.Invocation{
		Name: "tldrify message", Caller: caller, Target: &commands.Message{Content: "a long message"},
	})
	if err != nil {
		t.Fatal(err)
	}
	e := onlyEmbed(t, reply)
	if e.Title != "TLDR Summary" || e.Fields[0].Name != "Summary" || e.Fields[0].Value != "tiny" {
		t.Errorf("unexpected embed %+v", e)
	}
	if h.llm.calls[0].system != summarize.Instruction {
		t.Errorf("summarizer instruction not used")
	}
}

func TestTldrLink(t *testing.T) {
	h := newHarness(t)

	reply, _, err := h.run(t, "tldrify link", map[string]any{"link": "example.com"})
	if err != nil || reply.Content != "Please provide a valid link" {
		t.Errorf("invalid link: reply %+v, err %v", reply, err)
	}
	if len(h.llm.calls) != 0 {
		t.Error("model called for an invalid link")
	}

	h.web.page = "page body"
	h.llm.reply = "summary"
	reply, _, err = h.run(t, "tldrify link", map[string]any{"link": "https://example.com/a"})
	if err != nil {
		t.Fatal(err)
	}
	if onlyEmbed(t, reply).Fields[0].Value != "summary" || h.web.lastQuery != "https://example.com/a" {
		t.Errorf("unexpected result %+v", reply)
	}
	if !strings.HasSuffix(h.llm.calls[0].prompt, "page body") {
		t.Errorf("page text not summarized: %q", h.llm.calls[0].prompt)
	}
}

func TestTldrNotConvergent(t *testing.T) {
	h := newHarness(t)
	h.llm.reply = strings.Repeat("x", 2000)

	reply, _, err := h.runWith(t, commands.Invocation{
		Name: "tldrify message", Caller: caller, Target: &commands.Message{Content: "text"},
	})
	if !errors.Is(err, summarize.ErrNotConvergent) {
		t.Fatalf("expected ErrNotConvergent, got %v", err)
	}
	if len(h.llm.calls) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(h.llm.calls))
	}
	if !strings.Contains(reply.Content, "couldn't shorten") {
		t.Errorf("content = %q", reply.Content)
	}
}

func TestTime(t *testing.T) {
	h := newHarness(t)
	h.web.localTime = &webapi.LocalTime{Label: "Time in Tokyo, Japan", Time: "9:41 PM"}

	reply, _, err := h.run(t, "time", map[string]any{"location": "Tokyo"})
	if err != nil {
		t.Fatal(err)
	}
	e := onlyEmbed(t, reply)
	if e.Title != "Time" || e.Description != "Time in Tokyo, Japan is 9:41 PM" {
		t.Errorf("unexpected embed %+v", e)
	}

	h.web.timeErr = webapi.ErrNoResult
	reply, _, err = h.run(t, "time", map[string]any{"location": "Atlantis"})
	if err == nil || reply.Content != "I couldn't find the time for Atlantis." {
		t.Errorf("reply %+v, err %v", reply, err)
	}
}

func TestPromptSetAndGet(t *testing.T) {
	h := newHarness(t)

	reply, _, err := h.run(t, "prompt get", nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Content != "You don't have a custom prompt set yet. Use `/prompt set` to set one." {
		t.Errorf("content = %q", reply.Content)
	}

	reply, _, err = h.run(t, "prompt set", map[string]any{"prompt": "talk like a pirate"})
	if err != nil {
		t.Fatal(err)
	}
	e := onlyEmbed(t, reply)
	if e.Title != "Prompt Updated" || e.Fields[0].Name != "New Prompt" || e.Fields[0].Value != "talk like a pirate" {
		t.Errorf("unexpected embed %+v", e)
	}
	if h.prompts.data["100"] != "talk like a pirate" {
		t.Errorf("prompt not stored: %v", h.prompts.data)
	}

	reply, _, err = h.run(t, "prompt get", nil)
	if err != nil {
		t.Fatal(err)
	}
	e = onlyEmbed(t, reply)
	if e.Title != "Your Custom Prompt" || e.Description != "Here is your current custom system prompt:" || e.Fields[0].Value != "talk like a pirate" {
		t.Errorf("unexpected embed %+v", e)
	}
}

func TestPromptStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.prompts.err = errors.New("database is locked")

	reply, _, err := h.run(t, "prompt set", map[string]any{"prompt": "x"})
	var de *commands.DispatchError
	if !errors.As(err, &de) || de.Kind != commands.HandlerError {
		t.Fatalf("expected HandlerError, got %v", err)
	}
	if strings.Contains(reply.Content, "locked") {
		t.Error("internal error leaked to the user")
	}
}

func TestSave(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "clip.gif")
	if err := os.WriteFile(path, []byte("GIF89a"), 0o600); err != nil {
		t.Fatal(err)
	}
	h.saver.path = path

	reply, rec, err := h.run(t, "save", map[string]any{
		"url": "https://example.com/v", "clip_start": "0:5", "clip_end": "0:10", "format": "gif",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !rec.deferred {
		t.Error("save should defer")
	}
	if h.saver.req != (media.Request{URL: "https://example.com/v", ClipStart: "0:5", ClipEnd: "0:10", Format: "gif"}) {
		t.Errorf("unexpected request %+v", h.saver.req)
	}
	if len(reply.Files) != 1 || reply.Files[0].Name != "clip.gif" || string(reply.Files[0].Data) != "GIF89a" {
		t.Errorf("unexpected files %+v", reply.Files)
	}
	if reply.Files[0].ContentType != "image/gif" {
		t.Errorf("content type = %q", reply.Files[0].ContentType)
	}
}

func TestSaveErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"download", &media.StageError{Stage: media.StageDownload, Err: &media.ExecError{Tool: "yt-dlp", ExitCode: 1, Stderr: "Unsupported URL"}},
			"Error downloading video: yt-dlp exited with status 1: Unsupported URL"},
		{"convert", &media.StageError{Stage: media.StageConvert, Err: &media.ExecError{Tool: "ffmpeg", ExitCode: 1, Stderr: "bad"}},
			"Error converting video: ffmpeg exited with status 1: bad"},
		{"url", media.ErrInvalidURL, "Please provide a valid link"},
		{"format", media.ErrInvalidFormat, "Unsupported format. Use a plain file extension such as mp4, gif or webm."},
		{"too large", &media.TooLargeError{Size: 30 << 20, Limit: 25 << 20}, "I can't upload that: the video is 30 MiB, which is over the 25 MiB upload limit."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.saver.err = tt.err

			reply, _, err := h.run(t, "save", map[string]any{"url": "https://example.com/v"})
			if err == nil {
				t.Fatal("expected error")
			}
			if reply.Content != tt.want {
				t.Errorf("content = %q, want %q", reply.Content, tt.want)
			}
		})
	}
}

func TestHelp(t *testing.T) {
	h := newHarness(t)

	reply, _, err := h.run(t, "help", nil)
	if err != nil {
		t.Fatal(err)
	}
	e := onlyEmbed(t, reply)
	if e.Title != "Maxine Bot Commands" || e.Description != "Here are all the available commands:" {
		t.Errorf("unexpected embed %+v", e)
	}
	if len(e.Fields) != len(categoryOrder)+1 || e.Fields[len(e.Fields)-1].Name != "💡 Usage Tips" {
		t.Errorf("unexpected fields %+v", e.Fields)
	}
	if !strings.Contains(e.Fields[0].Value, "`/ask`") || !strings.Contains(e.Fields[0].Value, "`Translate to English` (message menu)") {
		t.Errorf("AI category missing commands: %q", e.Fields[0].Value)
	}

	reply, _, _ = h.run(t, "help", map[string]any{"command": "prompt"})
	e = onlyEmbed(t, reply)
	if e.Title != "Help: /prompt" || !strings.Contains(e.Description, "/prompt set <your custom prompt>") {
		t.Errorf("unexpected group help %+v", e)
	}

	reply, _, _ = h.run(t, "help", map[string]any{"command": "nope"})
	if e := onlyEmbed(t, reply); e.Description != msgCommandNotFound {
		t.Errorf("description = %q", e.Description)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("got %q", got)
	}
	got := truncate(strings.Repeat("é", 20), 10)
	if n := len([]rune(got)); n != 10 || !strings.HasSuffix(got, "…") {
		t.Errorf("got %q (%d runes)", got, n)
	}
}
