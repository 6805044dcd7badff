// Package game holds the word-guessing rules and the adapter that
// drives them over a peer session. The rules are pure functions of the
// solution and guess strings.
package game

import (
	"errors"
	"strings"
)

// MaxGuesses is the number of attempts before the game is lost.
const MaxGuesses = 6

// Mark scores one guess letter.
type Mark int

const (
	// Absent letters do not occur in the solution (or all their
	// occurrences are already accounted for).
	Absent Mark = iota
	// Present letters occur in the solution at a different position.
	Present
	// Correct letters match the solution at that position.
	Correct
)

var ErrLengthMismatch = errors.New("guess length does not match solution")

// Evaluate scores guess against solution. Duplicate guess letters are
// only marked Present while unmatched occurrences remain in the
// solution, so a double letter never scores twice against a single
// occurrence.
func Evaluate(solution, guess string) ([]Mark, error) {
	solution = strings.ToUpper(solution)
	guess = strings.ToUpper(guess)
	if len(solution) != len(guess) {
		return nil, ErrLengthMismatch
	}

	marks := make([]Mark, len(guess))
	remaining := make(map[byte]int, len(solution))

	// First pass: exact positions.
	for i := 0; i < len(guess); i++ {
		if guess[i] == solution[i] {
			marks[i] = Correct
		} else {
			remaining[solution[i]]++
		}
	}

	// Second pass: misplaced letters, bounded by unmatched occurrences.
	for i := 0; i < len(guess); i++ {
		if marks[i] == Correct {
			continue
		}
		if remaining[guess[i]] > 0 {
			marks[i] = Present
			remaining[guess[i]]--
		}
	}

	return marks, nil
}

// Won reports whether guess solves the puzzle.
func Won(solution, guess string) bool {
	return strings.EqualFold(solution, guess)
}
