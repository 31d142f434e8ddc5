package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cluechase/internal/domain"
	"cluechase/internal/repository"
)

// LLMClient is the completion-service contract consumed by the game.
// *openai.Client satisfies it through a thin adapter in main.
type LLMClient interface {
	Chat(ctx context.Context, req domain.ChatRequest) (string, error)
	ChatStream(ctx context.Context, req domain.ChatRequest) (TokenStream, error)
}

// TokenStream is a finite ordered sequence of reply fragments. Recv blocks
// until the next fragment and returns io.EOF on exhaustion.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Prompter is the player-facing input surface. Both calls block until the
// player responds.
type Prompter interface {
	ReadGuess() (string, error)
	ConfirmHint() (bool, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// winKeywords is the fixed set scanned for in every reply to decide whether
// the player has won. Case-insensitive substring match - a deliberate
// heuristic inherited from the game's design: a reply like "that's not
// right" can false-positive, and that is accepted rather than second-guessed.
var winKeywords = []string{"congratulations", "correct", "you got it", "right", "exactly"}

// Config fixes the shape of one session before any request is issued.
type Config struct {
	Difficulty domain.Difficulty
	Model      string
	Streaming  bool

	// MaxAttempts and MaxHints override the tier budgets when positive;
	// zero means the tier default, and a negative MaxHints disables hints.
	MaxAttempts int
	MaxHints    int
}

// sessionState holds the mutable counters of one session. Touched only by
// the turn loop; gone at process exit.
type sessionState struct {
	attemptsUsed int
	maxAttempts  int
	hintsUsed    int
	maxHints     int
	finished     bool
}

// Outcome reports how a session ended.
type Outcome struct {
	SessionID    string
	Won          bool
	AttemptsUsed int
	HintsUsed    int
}

// Game drives one session end-to-end: seed the persona, fetch the opening
// clue, then loop guesses against the completion service until a winning
// reply is detected or the attempt budget runs out.
type Game struct {
	llm      LLMClient
	prompter Prompter
	out      io.Writer

	cfg       Config
	sampling  domain.SamplingConfig
	sessionID string
	logger    zerolog.Logger
}

// NewGame validates the collaborators and fixes the session configuration.
// The sampling parameters are selected here, once, and reused for every
// request in the session.
func NewGame(llm LLMClient, prompter Prompter, out io.Writer, cfg Config) (*Game, error) {
	if llm == nil {
		return nil, newError(ErrorConfig, "nil_llm_client", nil)
	}
	if prompter == nil {
		return nil, newError(ErrorConfig, "nil_prompter", nil)
	}
	if out == nil {
		return nil, newError(ErrorConfig, "nil_output", nil)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, newError(ErrorConfig, "empty_model", nil)
	}
	if _, err := domain.ParseDifficulty(string(cfg.Difficulty)); err != nil {
		return nil, newError(ErrorConfig, "bad_difficulty", err)
	}

	sessionID := uuid.NewString()
	return &Game{
		llm:       llm,
		prompter:  prompter,
		out:       out,
		cfg:       cfg,
		sampling:  domain.SamplingFor(cfg.Difficulty),
		sessionID: sessionID,
		logger: log.With().
			Str("session_id", sessionID).
			Str("difficulty", string(cfg.Difficulty)).
			Logger(),
	}, nil
}

// RunSession plays one full game. It returns the outcome on either terminal
// path (win, or attempts exhausted) and an error only when the session dies:
// a completion-service failure or broken terminal IO. Service errors are
// never retried.
func (g *Game) RunSession(ctx context.Context) (Outcome, error) {
	conv, err := repository.NewConversationLog(personaFor(g.cfg.Difficulty))
	if err != nil {
		return Outcome{}, newError(ErrorInternal, "seed_conversation", err)
	}

	state := sessionState{
		maxAttempts: g.cfg.MaxAttempts,
		maxHints:    g.cfg.MaxHints,
	}
	if state.maxAttempts <= 0 {
		state.maxAttempts = domain.AttemptsFor(g.cfg.Difficulty)
	}
	switch {
	case state.maxHints < 0:
		state.maxHints = 0
	case state.maxHints == 0:
		state.maxHints = domain.HintsFor(g.cfg.Difficulty)
	}

	// Opening exchange: ask for the first puzzle and show the first clue.
	if err := g.exchange(ctx, conv, openingRequest); err != nil {
		return g.outcome(state), err
	}

	for state.attemptsUsed < state.maxAttempts && !state.finished {
		state.attemptsUsed++

		guess, readErr := g.prompter.ReadGuess()
		if readErr != nil {
			return g.outcome(state), newError(ErrorInternal, "read_guess", readErr)
		}
		if strings.TrimSpace(guess) == "" {
			// Empty input is free: hand the attempt back and re-prompt.
			state.attemptsUsed--
			continue
		}

		if err := g.exchange(ctx, conv, wrapGuess(g.cfg.Difficulty, guess)); err != nil {
			return g.outcome(state), err
		}
		reply := lastReply(conv)
		g.logger.Debug().
			Int("attempt", state.attemptsUsed).
			Int("turns", conv.Len()).
			Msg("guess evaluated")

		if isWinningReply(reply) {
			state.finished = true
			break
		}

		if state.attemptsUsed < state.maxAttempts && state.hintsUsed < state.maxHints {
			wantHint, hintErr := g.prompter.ConfirmHint()
			if hintErr != nil {
				return g.outcome(state), newError(ErrorInternal, "confirm_hint", hintErr)
			}
			if wantHint {
				// A hint consumes its own request but not an attempt.
				state.hintsUsed++
				if err := g.exchange(ctx, conv, hintRequest); err != nil {
					return g.outcome(state), err
				}
			}
		}
	}

	out := g.outcome(state)
	g.logger.Info().
		Bool("won", out.Won).
		Int("attempts_used", out.AttemptsUsed).
		Int("hints_used", out.HintsUsed).
		Msg("session finished")
	return out, nil
}

func (g *Game) outcome(state sessionState) Outcome {
	return Outcome{
		SessionID:    g.sessionID,
		Won:          state.finished,
		AttemptsUsed: state.attemptsUsed,
		HintsUsed:    state.hintsUsed,
	}
}

// exchange appends one player turn, issues a completion request over the full
// transcript, emits the reply to the output as it arrives, and appends the
// reply as the assistant turn.
func (g *Game) exchange(ctx context.Context, conv *repository.ConversationLog, playerText string) error {
	if err := conv.Append(domain.ChatMessage{Role: domain.RoleUser, Content: playerText}); err != nil {
		return newError(ErrorInternal, "append_player_turn", err)
	}

	req := domain.ChatRequest{
		Model:    g.cfg.Model,
		Messages: conv.Snapshot(),
		Sampling: g.sampling,
	}

	var reply string
	var err error
	if g.cfg.Streaming {
		reply, err = g.completeStreaming(ctx, req)
	} else {
		reply, err = g.completeWhole(ctx, req)
	}
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == http.StatusTooManyRequests {
			return newError(ErrorRateLimited, "completion_rate_limited", err)
		}
		return newError(ErrorUpstream, "completion_error", err)
	}
	if strings.TrimSpace(reply) == "" {
		return newError(ErrorUpstream, "empty_reply", nil)
	}

	if err := conv.Append(domain.ChatMessage{Role: domain.RoleAssistant, Content: reply}); err != nil {
		return newError(ErrorInternal, "append_assistant_turn", err)
	}
	return nil
}

// completeWhole issues a non-streaming request and prints the single reply.
func (g *Game) completeWhole(ctx context.Context, req domain.ChatRequest) (string, error) {
	reply, err := g.llm.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(g.out, reply)
	return reply, nil
}

// completeStreaming pulls reply fragments one at a time, printing each the
// moment it arrives, and returns the concatenation as the complete reply.
// The concatenation must equal what the non-streaming path would have
// returned for the same request.
func (g *Game) completeStreaming(ctx context.Context, req domain.ChatRequest) (string, error) {
	stream, err := g.llm.ChatStream(ctx, req)
	if err != nil {
		return "", err
	}
	defer func() { _ = stream.Close() }()

	var full strings.Builder
	for {
		fragment, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		fmt.Fprint(g.out, fragment)
		full.WriteString(fragment)
	}
	fmt.Fprintln(g.out)
	return full.String(), nil
}

// isWinningReply scans a reply for the fixed win keywords, case-insensitively.
func isWinningReply(reply string) bool {
	lowered := strings.ToLower(reply)
	for _, kw := range winKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// lastReply returns the text of the newest assistant turn, or "".
func lastReply(conv *repository.ConversationLog) string {
	snapshot := conv.Snapshot()
	for i := len(snapshot) - 1; i >= 0; i-- {
		if snapshot[i].Role == domain.RoleAssistant {
			return snapshot[i].Content
		}
	}
	return ""
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
