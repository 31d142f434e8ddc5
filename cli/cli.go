// Package cli owns the interactive terminal surface: the banner, the
// difficulty menu, the guess and hint prompts, and the outward mapping of
// session errors to user-facing messages. Everything here recovers bad input
// by re-prompting; nothing here talks to the completion service.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"cluechase/internal/domain"
	"cluechase/internal/usecase"
)

// UI reads prompts from one input and writes everything player-visible to
// one output. It implements usecase.Prompter.
type UI struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) (*UI, error) {
	if in == nil {
		return nil, errors.New("cli: input must not be nil")
	}
	if out == nil {
		return nil, errors.New("cli: output must not be nil")
	}
	return &UI{in: bufio.NewReader(in), out: out}, nil
}

// Banner prints the game header once at startup.
func (u *UI) Banner() {
	fmt.Fprintln(u.out, "=== cluechase ===")
	fmt.Fprintln(u.out, "I think of something; you guess what it is.")
	fmt.Fprintln(u.out)
}

// SelectDifficulty runs the four-tier menu until the player types one of the
// accepted tokens exactly. Invalid choices are absorbed here and never
// surface as errors; only broken input IO does.
func (u *UI) SelectDifficulty() (domain.Difficulty, error) {
	for {
		fmt.Fprintf(u.out, "Choose a difficulty (%s): ", difficultyTokens())
		line, err := u.readLine()
		if err != nil {
			return "", fmt.Errorf("cli: read difficulty: %w", err)
		}
		d, parseErr := domain.ParseDifficulty(strings.TrimSpace(line))
		if parseErr != nil {
			fmt.Fprintf(u.out, "Please type one of: %s\n", difficultyTokens())
			continue
		}
		return d, nil
	}
}

// ReadGuess prompts for and returns one line of free-text input. The
// orchestrator decides what an empty line means.
func (u *UI) ReadGuess() (string, error) {
	fmt.Fprint(u.out, "\nYour guess: ")
	line, err := u.readLine()
	if err != nil {
		return "", fmt.Errorf("cli: read guess: %w", err)
	}
	return line, nil
}

// ConfirmHint asks the yes/no hint question. "y" and "yes" are affirmative,
// case-insensitively; anything else is a no.
func (u *UI) ConfirmHint() (bool, error) {
	fmt.Fprint(u.out, "Want a hint? [y/N] ")
	line, err := u.readLine()
	if err != nil {
		return false, fmt.Errorf("cli: read hint answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// ReportOutcome prints the terminal state of the session.
func (u *UI) ReportOutcome(out usecase.Outcome) {
	fmt.Fprintln(u.out)
	if out.Won {
		fmt.Fprintf(u.out, "You got it in %d attempt(s) with %d hint(s). Well played!\n",
			out.AttemptsUsed, out.HintsUsed)
		return
	}
	fmt.Fprintf(u.out, "Out of attempts after %d tries. Better luck next time!\n",
		out.AttemptsUsed)
}

// ReportError maps a fatal session error to a short player-facing message.
// The full error chain goes to the logs, not the player.
func (u *UI) ReportError(err error) {
	var uerr *usecase.Error
	if !errors.As(err, &uerr) {
		fmt.Fprintln(u.out, "The game hit an unexpected problem and has to stop.")
		return
	}
	switch uerr.Code {
	case usecase.ErrorConfig:
		fmt.Fprintln(u.out, "The game is misconfigured; check your settings and try again.")
	case usecase.ErrorRateLimited:
		fmt.Fprintln(u.out, "The word service is rate limiting us; try again in a moment.")
	case usecase.ErrorUpstream:
		fmt.Fprintln(u.out, "The word service failed; the session cannot continue.")
	default:
		fmt.Fprintln(u.out, "The game hit an unexpected problem and has to stop.")
	}
}

// readLine reads one line, tolerating a final unterminated line at EOF.
func (u *UI) readLine() (string, error) {
	line, err := u.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func difficultyTokens() string {
	tokens := make([]string, len(domain.Difficulties))
	for i, d := range domain.Difficulties {
		tokens[i] = string(d)
	}
	return strings.Join(tokens, ", ")
}
