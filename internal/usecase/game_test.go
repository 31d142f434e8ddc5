package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"cluechase/internal/domain"
	"cluechase/internal/integrations/openai"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

// scriptedStream replays a fixed fragment sequence, then io.EOF.
type scriptedStream struct {
	fragments []string
	idx       int
	closed    bool
}

func (s *scriptedStream) Recv() (string, error) {
	if s.idx >= len(s.fragments) {
		return "", io.EOF
	}
	f := s.fragments[s.idx]
	s.idx++
	return f, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

// mockLLM serves one scripted reply (or fragment sequence) per request, in
// request order, and records every request it sees.
type mockLLM struct {
	replies   []string      // consumed by Chat
	fragments [][]string    // consumed by ChatStream
	errs      map[int]error // request index -> error

	calls    int
	requests []domain.ChatRequest
	streams  []*scriptedStream
}

func (m *mockLLM) take(req domain.ChatRequest) (int, error) {
	i := m.calls
	m.calls++
	m.requests = append(m.requests, req)
	if err := m.errs[i]; err != nil {
		return 0, err
	}
	return i, nil
}

func (m *mockLLM) Chat(_ context.Context, req domain.ChatRequest) (string, error) {
	i, err := m.take(req)
	if err != nil {
		return "", err
	}
	if i >= len(m.replies) {
		return "", fmt.Errorf("no scripted reply for request %d", i)
	}
	return m.replies[i], nil
}

func (m *mockLLM) ChatStream(_ context.Context, req domain.ChatRequest) (TokenStream, error) {
	i, err := m.take(req)
	if err != nil {
		return nil, err
	}
	if i >= len(m.fragments) {
		return nil, fmt.Errorf("no scripted fragments for request %d", i)
	}
	s := &scriptedStream{fragments: m.fragments[i]}
	m.streams = append(m.streams, s)
	return s, nil
}

// fakePrompter replays scripted guesses and hint answers.
type fakePrompter struct {
	guesses []string
	gi      int

	hints    []bool
	hintAsks int
}

func (p *fakePrompter) ReadGuess() (string, error) {
	if p.gi >= len(p.guesses) {
		return "", errors.New("no scripted guess left")
	}
	g := p.guesses[p.gi]
	p.gi++
	return g, nil
}

func (p *fakePrompter) ConfirmHint() (bool, error) {
	p.hintAsks++
	if p.hintAsks > len(p.hints) {
		return false, nil
	}
	return p.hints[p.hintAsks-1], nil
}

func newTestGame(t *testing.T, llm LLMClient, p Prompter, cfg Config) (*Game, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = domain.DifficultyMedium
	}
	g, err := NewGame(llm, p, out, cfg)
	require.NoError(t, err)
	return g, out
}

// ---------------------------------------------------------------------------
// NewGame
// ---------------------------------------------------------------------------

func TestNewGame_Validation(t *testing.T) {
	llm := &mockLLM{}
	p := &fakePrompter{}
	out := &bytes.Buffer{}
	valid := Config{Difficulty: domain.DifficultyEasy, Model: "gpt-4o"}

	_, err := NewGame(nil, p, out, valid)
	require.Error(t, err)

	_, err = NewGame(llm, nil, out, valid)
	require.Error(t, err)

	_, err = NewGame(llm, p, nil, valid)
	require.Error(t, err)

	_, err = NewGame(llm, p, out, Config{Difficulty: domain.DifficultyEasy, Model: "  "})
	require.Error(t, err)

	_, err = NewGame(llm, p, out, Config{Difficulty: "impossible", Model: "gpt-4o"})
	require.Error(t, err)
	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, ErrorConfig, uerr.Code)

	g, err := NewGame(llm, p, out, valid)
	require.NoError(t, err)
	require.NotEmpty(t, g.sessionID)
}

// ---------------------------------------------------------------------------
// RunSession — terminal paths
// ---------------------------------------------------------------------------

func TestRunSession_WinOnKeyword(t *testing.T) {
	llm := &mockLLM{replies: []string{
		"I am thinking of something yellow that monkeys love.",
		"Correct! Well done.",
	}}
	p := &fakePrompter{guesses: []string{"banana"}}
	g, out := newTestGame(t, llm, p, Config{MaxAttempts: 4, MaxHints: -1})

	outcome, err := g.RunSession(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Won)
	require.Equal(t, 1, outcome.AttemptsUsed)
	require.Equal(t, 0, outcome.HintsUsed)
	require.Equal(t, 2, llm.calls, "opening request plus one guess")
	require.Equal(t, 0, p.hintAsks, "a win skips the hint offer")
	require.Contains(t, out.String(), "Correct! Well done.")
}

func TestRunSession_LossAfterAttemptsExhausted(t *testing.T) {
	llm := &mockLLM{replies: []string{
		"First clue.",
		"Not quite, try again",
		"Not quite, try again",
		"Not quite, try again",
		"Not quite, try again",
	}}
	p := &fakePrompter{guesses: []string{"a", "b", "c", "d"}}
	g, _ := newTestGame(t, llm, p, Config{MaxAttempts: 4, MaxHints: -1})

	outcome, err := g.RunSession(context.Background())
	require.NoError(t, err)
	require.False(t, outcome.Won)
	require.Equal(t, 4, outcome.AttemptsUsed)
	require.Equal(t, 5, llm.calls, "no request may follow the final losing guess")
}

func TestRunSession_EmptyInputIsFree(t *testing.T) {
	llm := &mockLLM{replies: []string{
		"First clue.",
		"Correct! You got it.",
	}}
	p := &fakePrompter{guesses: []string{"", "   ", "\t", "banana"}}
	g, _ := newTestGame(t, llm, p, Config{MaxAttempts: 4, MaxHints: -1})

	outcome, err := g.RunSession(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Won)
	require.Equal(t, 1, outcome.AttemptsUsed, "empty submissions must not consume attempts")
	require.Equal(t, 2, llm.calls, "empty submissions must not issue requests")
}

// ---------------------------------------------------------------------------
// RunSession — hints
// ---------------------------------------------------------------------------

func TestRunSession_HintBudget(t *testing.T) {
	llm := &mockLLM{replies: []string{
		"First clue.",
		"Not quite, try again", "Here is hint 1.",
		"Not quite, try again", "Here is hint 2.",
		"Not quite, try again", "Here is hint 3.",
		"Not quite, try again",
		"Correct! Well done.",
	}}
	p := &fakePrompter{
		guesses: []string{"a", "b", "c", "d", "e"},
		hints:   []bool{true, true, true},
	}
	g, out := newTestGame(t, llm, p, Config{MaxAttempts: 10, MaxHints: 3})

	outcome, err := g.RunSession(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Won)
	require.Equal(t, 5, outcome.AttemptsUsed, "hints must not consume attempts")
	require.Equal(t, 3, outcome.HintsUsed)
	require.Equal(t, 3, p.hintAsks, "the offer is never presented once the budget is spent")
	require.Equal(t, 9, llm.calls)
	require.Contains(t, out.String(), "Here is hint 3.")
}

func TestRunSession_DeclinedHintCostsNothing(t *testing.T) {
	llm := &mockLLM{replies: []string{
		"First clue.",
		"Not quite, try again",
		"Correct! Well done.",
	}}
	p := &fakePrompter{
		guesses: []string{"a", "b"},
		hints:   []bool{false},
	}
	g, _ := newTestGame(t, llm, p, Config{MaxAttempts: 4, MaxHints: 3})

	outcome, err := g.RunSession(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Won)
	require.Equal(t, 0, outcome.HintsUsed)
	require.Equal(t, 1, p.hintAsks)
	require.Equal(t, 3, llm.calls, "a declined hint issues no request")
}

// ---------------------------------------------------------------------------
// RunSession — streaming
// ---------------------------------------------------------------------------

func TestRunSession_StreamingMatchesWholeReply(t *testing.T) {
	guesses := []string{"x"}

	streamed := &mockLLM{fragments: [][]string{
		{"Hel", "lo, ", "world!"},
		{"Corr", "ect!"},
	}}
	gs, streamedOut := newTestGame(t, streamed, &fakePrompter{guesses: guesses},
		Config{MaxAttempts: 4, MaxHints: -1, Streaming: true})

	whole := &mockLLM{replies: []string{"Hello, world!", "Correct!"}}
	gw, wholeOut := newTestGame(t, whole, &fakePrompter{guesses: guesses},
		Config{MaxAttempts: 4, MaxHints: -1})

	so, err := gs.RunSession(context.Background())
	require.NoError(t, err)
	wo, err := gw.RunSession(context.Background())
	require.NoError(t, err)

	require.True(t, so.Won)
	require.True(t, wo.Won)
	require.Equal(t, wholeOut.String(), streamedOut.String(),
		"streamed and whole replies must render identically")

	// The assistant turn folded back into history must be the exact
	// concatenation of the fragments.
	require.Equal(t, 2, len(streamed.requests))
	require.Equal(t, whole.requests[1].Messages, streamed.requests[1].Messages)
	require.Equal(t, "Hello, world!", streamed.requests[1].Messages[2].Content)

	for _, s := range streamed.streams {
		require.True(t, s.closed, "every stream must be closed")
	}
}

// ---------------------------------------------------------------------------
// RunSession — failure semantics
// ---------------------------------------------------------------------------

func TestRunSession_ServiceErrorIsFatal(t *testing.T) {
	llm := &mockLLM{errs: map[int]error{0: errors.New("connection refused")}}
	g, _ := newTestGame(t, llm, &fakePrompter{}, Config{MaxAttempts: 4})

	_, err := g.RunSession(context.Background())
	require.Error(t, err)
	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, ErrorUpstream, uerr.Code)
	require.Equal(t, 1, llm.calls, "a failed request must not be retried")
}

func TestRunSession_RateLimitClassified(t *testing.T) {
	llm := &mockLLM{errs: map[int]error{
		0: fmt.Errorf("openai: request failed: %w", &openai.HTTPStatusError{StatusCode: 429}),
	}}
	g, _ := newTestGame(t, llm, &fakePrompter{}, Config{MaxAttempts: 4})

	_, err := g.RunSession(context.Background())
	require.Error(t, err)
	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, ErrorRateLimited, uerr.Code)
}

func TestRunSession_MidGameServiceErrorReportsPartialOutcome(t *testing.T) {
	llm := &mockLLM{
		replies: []string{"First clue.", "Not quite, try again"},
		errs:    map[int]error{2: errors.New("boom")},
	}
	p := &fakePrompter{guesses: []string{"a", "b"}}
	g, _ := newTestGame(t, llm, p, Config{MaxAttempts: 4, MaxHints: -1})

	outcome, err := g.RunSession(context.Background())
	require.Error(t, err)
	require.False(t, outcome.Won)
	require.Equal(t, 2, outcome.AttemptsUsed)
}

// ---------------------------------------------------------------------------
// win detection
// ---------------------------------------------------------------------------

func TestIsWinningReply(t *testing.T) {
	cases := []struct {
		reply string
		win   bool
	}{
		{"Correct! Well done.", true},
		{"CONGRATULATIONS, you guessed it!", true},
		{"Yes - you got it in three tries.", true},
		{"That's exactly it.", true},
		{"Not quite, try again", false},
		{"Keep going, think about the ocean.", false},
		{"", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.win, isWinningReply(tc.reply), "reply=%q", tc.reply)
	}
}
