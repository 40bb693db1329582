package devserver

import (
	"strings"

	"github.com/starford/noteai/internal/filter"
)

// Fixture answers for the AI endpoints. They are keyword heuristics, good
// enough to drive a client end to end.

var categoryHints = []struct {
	category string
	words    []string
}{
	{"meeting", []string{"meeting", "agenda", "discuss", "team"}},
	{"work", []string{"project", "deadline", "task", "goal"}},
	{"ideas", []string{"idea", "thought", "brainstorm", "concept"}},
	{"personal", []string{"personal", "life", "family", "hobby"}},
}

type analysis struct {
	SuggestedCategories []string `json:"suggested_categories"`
	Summary             string   `json:"summary"`
	Enhancements        []string `json:"enhancements"`
	AIPowered           bool     `json:"ai_powered"`
}

func analyze(content, title string) analysis {
	text := filter.PlainText(content)
	lower := strings.ToLower(text)

	var cats []string
	for _, h := range categoryHints {
		for _, w := range h.words {
			if strings.Contains(lower, w) {
				cats = append(cats, h.category)
				break
			}
		}
	}
	if len(cats) == 0 {
		cats = []string{"ideas"}
	}
	if len(cats) > 2 {
		cats = cats[:2]
	}

	sentences := strings.Split(text, ".")
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	summary := strings.TrimSpace(strings.Join(sentences, ". "))
	if summary != "" && !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	if summary == "" {
		topic := title
		if topic == "" {
			topic = "various topics"
		}
		summary = "Brief note about " + topic
	}

	enh := []string{}
	if len([]rune(text)) < 50 {
		enh = append(enh, "Consider expanding this note with more details or examples.")
	}
	if strings.Contains(text, "?") {
		enh = append(enh, "This note contains questions - consider adding answers or action items.")
	}
	if strings.Contains(lower, "todo") || strings.Contains(lower, "task") || strings.Contains(lower, "need to") {
		enh = append(enh, "This looks like a task - consider adding a deadline or priority level.")
	}
	if len(enh) > 2 {
		enh = enh[:2]
	}

	return analysis{SuggestedCategories: cats, Summary: summary, Enhancements: enh, AIPowered: true}
}

var grammarFixes = strings.NewReplacer(
	" i ", " I ",
	" im ", " I'm ",
	" cant ", " can't ",
	" dont ", " don't ",
	" wont ", " won't ",
)

func enhance(content string) string {
	out := grammarFixes.Replace(content)
	trimmed := strings.TrimRight(out, " \t\r\n")
	if trimmed != "" && !strings.HasSuffix(trimmed, ".") && !strings.HasSuffix(trimmed, "!") &&
		!strings.HasSuffix(trimmed, "?") && !strings.HasSuffix(trimmed, ">") {
		out = trimmed + "."
	}
	return out
}

func suggestTitle(content string) string {
	text := strings.TrimSpace(filter.PlainText(content))
	if text == "" {
		return "Untitled Note"
	}
	first := strings.TrimSpace(strings.Split(text, ".")[0])
	if len([]rune(first)) > 50 {
		words := strings.Fields(first)
		if len(words) > 8 {
			words = words[:8]
		}
		return strings.Join(words, " ") + "..."
	}
	if first == "" {
		return "Quick Note"
	}
	return first
}
