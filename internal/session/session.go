// Package session runs the interactive loop: operator lines are either
// control verbs handed to the engine or requests sent to the model, whose
// responses are processed by the engine.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/command"
	"github.com/xdg/kota/internal/engine"
	"github.com/xdg/kota/internal/model"
	"github.com/xdg/kota/internal/selfmod"
	"github.com/xdg/kota/internal/term"
)

// DefaultPrompt is shown before each operator line.
const DefaultPrompt = "kota> "

// maxTurns bounds how much conversation history is sent to the model.
const maxTurns = 10

// Turn is one request and the model's reply.
type Turn struct {
	ID       string
	Request  string
	Response string
}

// InputState tracks where operator lines come from.
type InputState struct {
	Reader *bufio.Reader
	Prompt string
	Lines  int
}

// DisplayState tracks what the operator is shown.
type DisplayState struct {
	Out io.Writer
	// ShowResponses prints each model response before it is processed.
	ShowResponses bool
}

// ConversationState is the history sent back to the model.
type ConversationState struct {
	Turns   []Turn
	Reports []*engine.Report
}

// Options configure a Session.
type Options struct {
	Engine    *engine.Engine
	Responder model.Responder
	Self      *selfmod.Controller

	// In is shared with the approval prompter, so both must read through
	// the same *bufio.Reader.
	In     *bufio.Reader
	Out    io.Writer
	Prompt string

	ShowResponses bool
}

// Session is one interactive run.
type Session struct {
	Input        InputState
	Display      DisplayState
	Conversation ConversationState

	engine    *engine.Engine
	responder model.Responder
	self      *selfmod.Controller
	newID     func() string
}

// New returns a Session. Engine is required.
func New(opts Options) (*Session, error) {
	if opts.Engine == nil {
		return nil, errors.New("session: engine is required")
	}
	in := opts.In
	if in == nil {
		in = bufio.NewReader(os.Stdin)
	}
	out := opts.Out
	if out == nil {
		out = term.Stdout()
	}
	prompt := opts.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &Session{
		Input:     InputState{Reader: in, Prompt: prompt},
		Display:   DisplayState{Out: out, ShowResponses: opts.ShowResponses},
		engine:    opts.Engine,
		responder: opts.Responder,
		self:      opts.Self,
		newID:     uuid.NewString,
	}, nil
}

// Run reads lines until the operator quits, input ends, ctx is cancelled
// or a response ends the session with a termination.
func (s *Session) Run(ctx context.Context) selfmod.Termination {
	for {
		if err := ctx.Err(); err != nil {
			return s.quit()
		}
		_, _ = fmt.Fprint(s.Display.Out, s.Input.Prompt)
		line, err := s.Input.Reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return s.fail(fmt.Errorf("read input: %w", err))
		}
		eof := errors.Is(err, io.EOF)
		if eof && line == "" {
			_, _ = fmt.Fprintln(s.Display.Out)
			return s.quit()
		}
		s.Input.Lines++

		if t, done := s.Handle(ctx, line); done {
			return t
		}
		if eof {
			return s.quit()
		}
	}
}

// Handle processes one operator line. It reports true when the session
// must end with the returned termination.
func (s *Session) Handle(ctx context.Context, line string) (selfmod.Termination, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return selfmod.Termination{}, false
	}

	word, arg, _ := strings.Cut(line, " ")
	switch word {
	case "/quit", "/exit":
		return s.quit(), true
	case "/help":
		s.help()
		return selfmod.Termination{}, false
	case "/response":
		return s.ingestFile(ctx, strings.TrimSpace(arg))
	}

	if strings.HasPrefix(line, "/") {
		s.engine.Dispatch(ctx, line)
		return selfmod.Termination{}, false
	}
	return s.ask(ctx, line)
}

// ask sends a request to the model and processes its response.
func (s *Session) ask(ctx context.Context, request string) (selfmod.Termination, bool) {
	if s.responder == nil {
		term.Error("%v; set model.command in the config or use /response FILE", model.ErrNotConfigured)
		return selfmod.Termination{}, false
	}

	turns := s.Conversation.Turns
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	store := s.engine.Store()
	prompt := buildPrompt(store.Root(), strings.Join(command.Verbs(), "\n"), store.Render(), turns, request)

	clog.Debug("session: sending %d byte prompt", len(prompt))
	resp, err := s.responder.Respond(ctx, prompt)
	if err != nil {
		term.Error("model: %v", err)
		return selfmod.Termination{}, false
	}
	return s.process(ctx, request, resp)
}

// ingestFile processes a model response saved in a file.
func (s *Session) ingestFile(ctx context.Context, path string) (selfmod.Termination, bool) {
	if path == "" {
		term.Error("/response: file required")
		return selfmod.Termination{}, false
	}
	data, err := os.ReadFile(s.engine.Store().Resolve(path))
	if err != nil {
		term.Error("/response: %v", err)
		return selfmod.Termination{}, false
	}
	return s.process(ctx, "(response from "+path+")", string(data))
}

// Ingest processes one model response outside the interactive loop.
func (s *Session) Ingest(ctx context.Context, response string) (*engine.Report, selfmod.Termination, bool) {
	t, done := s.process(ctx, "(response)", response)
	var report *engine.Report
	if n := len(s.Conversation.Reports); n > 0 {
		report = s.Conversation.Reports[n-1]
	}
	return report, t, done
}

func (s *Session) process(ctx context.Context, request, response string) (selfmod.Termination, bool) {
	id := s.newID()
	if s.Display.ShowResponses {
		term.Rule("response " + shortID(id))
		term.Block(response)
	}

	report := s.engine.ProcessResponse(ctx, id, response)
	s.Conversation.Turns = append(s.Conversation.Turns, Turn{ID: id, Request: request, Response: response})
	s.Conversation.Reports = append(s.Conversation.Reports, report)
	s.summarize(report)

	if report.Termination != nil {
		t := *report.Termination
		clog.Info("session: ending with status %d: %s", t.Code, t.Reason)
		return t, true
	}
	return selfmod.Termination{}, false
}

func (s *Session) summarize(r *engine.Report) {
	if len(r.Edits) == 0 && len(r.Commands) == 0 {
		if len(r.Errors) == 0 {
			term.Println("No edits or commands in response.")
		}
		return
	}
	ran := 0
	for _, c := range r.Commands {
		if c.Status == engine.StatusCompleted || c.Status == engine.StatusDispatched {
			ran++
		}
	}
	term.Printf("%d of %d edit(s) applied, %d of %d command(s) run\n", r.Applied(), len(r.Edits), ran, len(r.Commands))
	if r.Termination != nil {
		term.Warn("%s", r.Termination.Reason)
	}
}

func (s *Session) help() {
	var b strings.Builder
	b.WriteString("/quit\n/help\n/response FILE\n")
	for _, v := range command.Verbs() {
		b.WriteString(v)
		b.WriteByte('\n')
	}
	b.WriteString("Any other line is sent to the model.")
	term.Block(b.String())
}

func (s *Session) quit() selfmod.Termination {
	if s.self != nil {
		return s.self.Quit()
	}
	return selfmod.Termination{Code: selfmod.ExitNormal, Reason: "quit"}
}

func (s *Session) fail(err error) selfmod.Termination {
	if s.self != nil {
		return s.self.Fail(err)
	}
	return selfmod.Termination{Code: selfmod.ExitError, Reason: "session failed", Err: err}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
