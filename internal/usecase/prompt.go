package usecase

import (
	"fmt"
	"strings"

	"cluechase/internal/domain"
)

// openingRequest is the fixed first player turn that asks the game master for
// the initial puzzle.
const openingRequest = "Let's play a guessing game! Give me a word to guess."

// hintRequest is the fixed player turn appended when the player accepts a
// hint offer.
const hintRequest = "I need a hint. Give me one more clue about the word, " +
	"a little more specific than your previous clues."

// personaFor builds the single system turn that defines the game master for
// one session. The text is fixed per tier, never generated.
func personaFor(d domain.Difficulty) string {
	sections := []string{
		"You are a word guessing game master. Create a fun guessing game where " +
			"you describe a word, object, animal, or concept using clues, and the " +
			"user needs to guess what it is.",
		"Give hints progressively - start with general clues and get more " +
			"specific if they need help. When the user guesses correctly, " +
			"congratulate them enthusiastically! When they guess incorrectly, " +
			"encourage them to try again and provide additional hints. Make it " +
			"engaging and educational!",
		tierRules(d),
	}
	if examples := fewShotExamples(d); examples != "" {
		sections = append(sections, examples)
	}
	return strings.Join(sections, "\n\n")
}

// tierRules states the difficulty contract for the model: how obscure the
// word may be and how revealing the clues should get.
func tierRules(d domain.Difficulty) string {
	switch d {
	case domain.DifficultyEasy:
		return "Difficulty: easy. Pick a common everyday word a child would know. " +
			"Clues should be generous and each hint may nearly give the word away."
	case domain.DifficultyMedium:
		return "Difficulty: medium. Pick a familiar word with some less obvious " +
			"angle. Clues should be helpful but never state the word outright."
	case domain.DifficultyHard:
		return "Difficulty: hard. Pick an uncommon word or abstract concept. " +
			"Keep clues short and indirect; hints reveal only one new property at a time."
	case domain.DifficultyExpert:
		return "Difficulty: expert. Pick an obscure or technical word. Clues are " +
			"terse riddles; a hint may only narrow the category, never describe the word."
	}
	return ""
}

// fewShotExamples returns a small worked exchange for the forgiving tiers so
// the model anchors on the expected clue/judgement format. Harder tiers get
// none: the extra scaffolding makes the replies too chatty.
func fewShotExamples(d domain.Difficulty) string {
	switch d {
	case domain.DifficultyEasy, domain.DifficultyMedium:
		return strings.Join([]string{
			"Example exchange:",
			"Game master: I am thinking of something yellow that monkeys love to eat.",
			"Player: banana",
			"Game master: Congratulations, that's exactly right! You got it in one.",
			"Player: apple",
			"Game master: Not quite! Keep trying - here is another clue: you peel it before eating.",
		}, "\n")
	}
	return ""
}

// wrapGuess prepares the player turn carrying a guess. On the harder tiers
// the raw guess is embedded in a step-by-step analysis instruction so the
// model weighs the guess before answering in character; the raw text is
// always preserved verbatim inside the wrapper.
func wrapGuess(d domain.Difficulty, guess string) string {
	switch d {
	case domain.DifficultyHard, domain.DifficultyExpert:
		return fmt.Sprintf(
			"Before you answer, think step by step: compare my guess to the word "+
				"you chose, consider meaning, category and closeness, then reply in "+
				"character. My guess is: %s", guess)
	}
	return guess
}
