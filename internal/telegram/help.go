package telegram

import "jobmate/brain-service/internal/intent"

func helpText() string {
	return intent.HelpText + "\n\n/reset starts a new conversation."
}
