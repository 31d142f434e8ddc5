package domain

import "fmt"

// Difficulty selects the persona, the sampling parameters and the attempt and
// hint budgets for one session. Chosen once at session start.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Difficulties lists the accepted menu tokens in presentation order.
var Difficulties = []Difficulty{
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyExpert,
}

// ParseDifficulty validates a menu token by exact match against the four
// accepted tiers. Anything else is an error and the menu re-prompts.
func ParseDifficulty(token string) (Difficulty, error) {
	switch d := Difficulty(token); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return d, nil
	}
	return "", fmt.Errorf("domain: unknown difficulty %q", token)
}

// SamplingConfig holds the generation-control parameters for one session.
// Immutable per tier; reused for every request in the session.
type SamplingConfig struct {
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	Stop             []string
}

// SamplingFor maps a difficulty tier to its sampling parameters. Higher tiers
// run cooler and terser so the clues give less away.
func SamplingFor(d Difficulty) SamplingConfig {
	switch d {
	case DifficultyEasy:
		return SamplingConfig{MaxTokens: 400, Temperature: 0.9, TopP: 1.0, FrequencyPenalty: 0.4, PresencePenalty: 0.4}
	case DifficultyMedium:
		return SamplingConfig{MaxTokens: 300, Temperature: 0.7, TopP: 0.95, FrequencyPenalty: 0.3, PresencePenalty: 0.3}
	case DifficultyHard:
		return SamplingConfig{MaxTokens: 220, Temperature: 0.5, TopP: 0.9, FrequencyPenalty: 0.2, PresencePenalty: 0.1}
	case DifficultyExpert:
		return SamplingConfig{MaxTokens: 150, Temperature: 0.3, TopP: 0.8, Stop: []string{"\n\n\n"}}
	}
	return SamplingFor(DifficultyMedium)
}

// AttemptsFor returns the guess budget for a tier.
func AttemptsFor(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 8
	case DifficultyMedium:
		return 6
	case DifficultyHard:
		return 5
	case DifficultyExpert:
		return 4
	}
	return 6
}

// HintsFor returns the hint budget for a tier.
func HintsFor(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 3
	case DifficultyMedium:
		return 3
	case DifficultyHard:
		return 2
	case DifficultyExpert:
		return 1
	}
	return 3
}
