// Package parser reads flashcards from markdown deck files.
//
// A card starts with a "Q:" line holding its front, followed by an "A:" back
// and an optional "T:" type tag. Each field may continue over several lines.
// A line of "---" or the next "Q:" ends the card.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/knolstudy/internal/domain"
)

const (
	frontPrefix = "Q:"
	backPrefix  = "A:"
	typePrefix  = "T:"
	separator   = "---"
)

type state int

const (
	seeking state = iota
	readingFront
	readingBack
	readingType
)

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Content, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards. Cards without a front
// are dropped; cards without a back are kept so the caller can report them.
func Parse(r io.Reader) ([]domain.Content, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.Content
	var current domain.Content
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimRight(strings.Join(block, "\n"), "\n")
		switch currentState {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		case readingType:
			current.Type = strings.ToLower(strings.TrimSpace(content))
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Front != "" {
			cards = append(cards, current)
		}
		current = domain.Content{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == separator {
			finishCard()
			continue
		}

		next, rest, ok := fieldStart(line)
		if !ok {
			if currentState != seeking {
				block = append(block, line)
			}
			continue
		}

		if next == readingFront && currentState != seeking {
			finishCard() // A new question always starts a new card
		}
		flushBlock()
		currentState = next
		block = append(block, rest)
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

// fieldStart reports whether line opens a field and returns its first line.
func fieldStart(line string) (state, string, bool) {
	for _, f := range []struct {
		prefix string
		state  state
	}{
		{frontPrefix, readingFront},
		{backPrefix, readingBack},
		{typePrefix, readingType},
	} {
		if rest, ok := strings.CutPrefix(line, f.prefix); ok {
			return f.state, strings.TrimPrefix(rest, " "), true
		}
	}
	return seeking, "", false
}
