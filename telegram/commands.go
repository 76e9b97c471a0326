package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// commandList is registered with Telegram so clients can suggest commands.
// Owner-only commands are left out.
func commandList() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Sign in and open your groups"},
		{Command: "groups", Description: "Your groups and public groups"},
		{Command: "join", Description: "Join a group with its code"},
		{Command: "newgroup", Description: "Create a riding group"},
		{Command: "rides", Description: "Rides of the open group"},
		{Command: "newride", Description: "Post a ride to the open group"},
		{Command: "requests", Description: "Pending ride requests you decide"},
		{Command: "export", Description: "Export the open group's rides"},
		{Command: "profile", Description: "Your XP and memberships"},
		{Command: "cancel", Description: "Cancel the current step"},
		{Command: "help", Description: "How the club works"},
	}
}
