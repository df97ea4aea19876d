package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-assistant/backend/internal/model/chat"
)

func TestRoleMapping(t *testing.T) {
	assert.Equal(t, "user", APIRole(chat.RoleUser))
	assert.Equal(t, "model", APIRole(chat.RoleAssistant))
	assert.Equal(t, "model", APIRole(chat.Role("bot")))
	assert.Equal(t, "model", APIRole(chat.Role("")))

	assert.Equal(t, "user", DisplayRole(chat.RoleUser))
	assert.Equal(t, "assistant", DisplayRole(chat.RoleAssistant))
	assert.Equal(t, "assistant", DisplayRole(chat.Role("bot")))
}

func TestBuildHistoryExcludesIntroAndKeepsOrder(t *testing.T) {
	turns := []chat.Turn{
		chat.IntroTurn("Hello!"),
		chat.UserTurn("What is anxiety?"),
		chat.AssistantTurn("Anxiety is..."),
		chat.IntroTurn("stray intro"),
		chat.UserTurn("And stress?"),
	}

	history := BuildHistory(turns, HistoryOptions{})
	require.Len(t, history, 3)
	assert.Equal(t, Content{Role: "user", Parts: []string{"What is anxiety?"}}, history[0])
	assert.Equal(t, Content{Role: "model", Parts: []string{"Anxiety is..."}}, history[1])
	assert.Equal(t, Content{Role: "user", Parts: []string{"And stress?"}}, history[2])
}

func TestBuildHistoryFailedTurns(t *testing.T) {
	failed := chat.Turn{Role: chat.RoleAssistant, Text: "An API error occurred: quota", ErrorKind: chat.ErrorKindProvider}
	turns := []chat.Turn{chat.UserTurn("hi"), failed}

	kept := BuildHistory(turns, HistoryOptions{})
	require.Len(t, kept, 2)
	assert.Equal(t, failed.Text, kept[1].Parts[0])

	dropped := BuildHistory(turns, HistoryOptions{ExcludeFailed: true})
	require.Len(t, dropped, 1)
	assert.Equal(t, "user", dropped[0].Role)
}

func TestBuildHistoryEmpty(t *testing.T) {
	assert.Empty(t, BuildHistory(nil, HistoryOptions{}))
	assert.Empty(t, BuildHistory([]chat.Turn{chat.IntroTurn("hi")}, HistoryOptions{}))
}
