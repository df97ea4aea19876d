package ai

import "github.com/zhouzirui/z-assistant/backend/internal/model/chat"

// Wire roles understood by the model API.
const (
	APIRoleUser  = "user"
	APIRoleModel = "model"
)

// APIRole maps a transcript role onto the model API vocabulary.
func APIRole(role chat.Role) string {
	if role == chat.RoleUser {
		return APIRoleUser
	}
	return APIRoleModel
}

// DisplayRole maps a transcript role onto the role shown by the UI.
func DisplayRole(role chat.Role) string {
	if role == chat.RoleUser {
		return string(chat.RoleUser)
	}
	return string(chat.RoleAssistant)
}

// HistoryOptions tunes BuildHistory.
type HistoryOptions struct {
	// ExcludeFailed drops assistant turns that carry an error description.
	ExcludeFailed bool
}

// BuildHistory converts turns into request history. Intro turns never reach the model.
func BuildHistory(turns []chat.Turn, opts HistoryOptions) []Content {
	history := make([]Content, 0, len(turns))
	for _, turn := range turns {
		if turn.IsIntro {
			continue
		}
		if opts.ExcludeFailed && turn.Failed() {
			continue
		}
		history = append(history, Content{
			Role:  APIRole(turn.Role),
			Parts: []string{turn.Text},
		})
	}
	return history
}
