package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectedFront string
		expectedBack  string
		expectedType  string
	}{
		{
			name:          "Simple front and back",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedCards: 1,
			expectedFront: "What is the capital of France?",
			expectedBack:  "Paris",
		},
		{
			name:          "Front, back and type",
			input:         "Q: chat\nA: cat\nT: Vocabulary",
			expectedCards: 1,
			expectedFront: "chat",
			expectedBack:  "cat",
			expectedType:  "vocabulary",
		},
		{
			name: "Multiline back",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expectedCards: 1,
			expectedFront: "What are the primary colors?",
			expectedBack:  "Red\nBlue\nYellow",
		},
		{
			name: "Two cards",
			input: `
Q: First question
A: First answer

Q: Second question
A: Second answer
`,
			expectedCards: 2,
		},
		{
			name: "Separator ends a card",
			input: `
Q: Why do leaves fall?
A: To save water in winter.
---
Stray text outside a card.
`,
			expectedCards: 1,
			expectedFront: "Why do leaves fall?",
			expectedBack:  "To save water in winter.",
		},
		{
			name:          "No cards, just text",
			input:         "This is a file with no questions.",
			expectedCards: 0,
		},
		{
			name:          "Prefixes with no space",
			input:         "Q:Question\nA:Answer",
			expectedCards: 1,
			expectedFront: "Question",
			expectedBack:  "Answer",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}

			if len(cards) != tc.expectedCards {
				t.Fatalf("Expected %d cards, but got %d", tc.expectedCards, len(cards))
			}

			if tc.expectedCards == 1 {
				card := cards[0]
				if card.Front != tc.expectedFront {
					t.Errorf("Expected Front to be '%s', but got '%s'", tc.expectedFront, card.Front)
				}
				if card.Back != tc.expectedBack {
					t.Errorf("Expected Back to be '%s', but got '%s'", tc.expectedBack, card.Back)
				}
				if card.Type != tc.expectedType {
					t.Errorf("Expected Type to be '%s', but got '%s'", tc.expectedType, card.Type)
				}
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.md")
	if err := os.WriteFile(path, []byte("Q: one\nA: 1\n\nQ: two\nA: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cards, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() returned an unexpected error: %v", err)
	}
	if len(cards) != 2 || cards[1].Back != "2" {
		t.Errorf("Unexpected cards: %+v", cards)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
