package distress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeUrgentPhrase(t *testing.T) {
	signal := Analyze("Lately I  want to die and nothing helps")
	assert.Equal(t, Urgent, signal.Level)
	assert.True(t, signal.Notify())
	assert.Contains(t, signal.Matches, "want to die")
}

func TestAnalyzeElevatedPhrase(t *testing.T) {
	signal := Analyze("I feel hopeless about work")
	assert.Equal(t, Elevated, signal.Level)
	assert.Equal(t, "elevated", signal.Level.String())
	assert.False(t, signal.Notify())
}

func TestAnalyzeTopicQuestionsDoNotNotify(t *testing.T) {
	for _, text := range []string{
		"What is a midlife crisis?",
		"Tips for a panic attack?",
		"What is substance abuse?",
		"How do I prepare an emergency kit?",
	} {
		signal := Analyze(text)
		assert.False(t, signal.Notify(), text)
	}
}

func TestAnalyzeTwoElevatedSignalsNotify(t *testing.T) {
	signal := Analyze("I feel hopeless and unsafe at home")
	assert.Equal(t, Urgent, signal.Level)
	assert.True(t, signal.Notify())
}

func TestAnalyzeManyElevatedSignalsEscalate(t *testing.T) {
	signal := Analyze("It is an emergency, I'm in crisis, I feel hopeless, unsafe and I can’t go on")
	assert.Equal(t, Urgent, signal.Level)
}

func TestAnalyzeOrdinaryQuestion(t *testing.T) {
	for _, text := range []string{"", "   ", "What is anxiety?", "How do I manage stress at work?"} {
		signal := Analyze(text)
		assert.False(t, signal.Notify(), text)
		assert.Equal(t, "none", signal.Level.String())
	}
}

func TestAnalyzeChineseKeywords(t *testing.T) {
	assert.Equal(t, Urgent, Analyze("我真的不想活了").Level)
}
