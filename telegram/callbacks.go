package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/apex_bot/internal/handlers"
	"github.com/mroshb/apex_bot/internal/rules"
	"github.com/mroshb/apex_bot/pkg/logger"
)

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	logger.Debug("Callback query", "data", query.Data, "user_id", query.From.ID)

	userID := query.From.ID
	data := query.Data
	messageID := 0
	if query.Message != nil {
		messageID = query.Message.MessageID
	}

	switch {
	case strings.HasPrefix(data, "g:"):
		b.handleGroupCallback(userID, query.ID, messageID, data)
	case strings.HasPrefix(data, "r:"):
		b.handleRideCallback(userID, query.ID, messageID, data)
	case strings.HasPrefix(data, "f:"):
		b.handleFilterCallback(userID, query.ID, messageID, data)
	case strings.HasPrefix(data, handlers.CbRequestApprove):
		b.handlers.HandleRequestDecision(userID, query.ID, messageID, true,
			strings.TrimPrefix(data, handlers.CbRequestApprove), b)
	case strings.HasPrefix(data, handlers.CbRequestDecline):
		b.handlers.HandleRequestDecision(userID, query.ID, messageID, false,
			strings.TrimPrefix(data, handlers.CbRequestDecline), b)
	case strings.HasPrefix(data, "w:"):
		b.handlers.HandleRideWizardCallback(userID, query.ID, data, b.getSession(userID), b)
	default:
		b.AnswerCallbackQuery(query.ID, "", false)
	}
}

func (b *Bot) handleGroupCallback(userID int64, queryID string, messageID int, data string) {
	switch {
	case strings.HasPrefix(data, handlers.CbGroupOpen):
		b.AnswerCallbackQuery(queryID, "", false)
		b.handlers.OpenGroup(userID, strings.TrimPrefix(data, handlers.CbGroupOpen), messageID, b)

	case strings.HasPrefix(data, handlers.CbGroupJoin):
		b.handlers.JoinPublicGroup(userID, queryID, messageID, strings.TrimPrefix(data, handlers.CbGroupJoin), b)

	case strings.HasPrefix(data, handlers.CbGroupQR):
		b.handlers.SendGroupQR(userID, queryID, strings.TrimPrefix(data, handlers.CbGroupQR), b)

	case strings.HasPrefix(data, handlers.CbGroupPrivacy):
		private := strings.TrimPrefix(data, handlers.CbGroupPrivacy) == "1"
		b.handlers.HandleGroupPrivacy(userID, queryID, private, b.getSession(userID), b)

	case data == handlers.CbGroupClose:
		b.AnswerCallbackQuery(queryID, "", false)
		b.handlers.ShowDashboard(userID, messageID, b)

	case data == handlers.CbGroupNew:
		b.AnswerCallbackQuery(queryID, "", false)
		b.handlers.StartGroupCreation(userID, b.getSession(userID), b)

	case data == handlers.CbGroupCode:
		b.AnswerCallbackQuery(queryID, "", false)
		b.handlers.StartJoinByCode(userID, b.getSession(userID), b)

	default:
		b.AnswerCallbackQuery(queryID, "", false)
	}
}

func (b *Bot) handleRideCallback(userID int64, queryID string, messageID int, data string) {
	switch {
	case strings.HasPrefix(data, handlers.CbRideView):
		b.AnswerCallbackQuery(queryID, "", false)
		b.handlers.ShowRide(userID, strings.TrimPrefix(data, handlers.CbRideView), messageID, b)

	case strings.HasPrefix(data, handlers.CbRideJoin):
		b.handlers.HandleRideAction(userID, queryID, messageID, rules.ActionJoin,
			strings.TrimPrefix(data, handlers.CbRideJoin), b)

	case strings.HasPrefix(data, handlers.CbRideLeave):
		b.handlers.HandleRideAction(userID, queryID, messageID, rules.ActionLeave,
			strings.TrimPrefix(data, handlers.CbRideLeave), b)

	case strings.HasPrefix(data, handlers.CbRideRequest):
		b.handlers.HandleRideAction(userID, queryID, messageID, rules.ActionRequest,
			strings.TrimPrefix(data, handlers.CbRideRequest), b)

	case strings.HasPrefix(data, handlers.CbRideRoster):
		b.handlers.ShowRoster(userID, queryID, strings.TrimPrefix(data, handlers.CbRideRoster), b)

	case data == handlers.CbRideList:
		b.AnswerCallbackQuery(queryID, "", false)
		b.handlers.ShowRides(userID, messageID, b)

	default:
		b.AnswerCallbackQuery(queryID, "", false)
	}
}

func (b *Bot) handleFilterCallback(userID int64, queryID string, messageID int, data string) {
	switch {
	case data == handlers.CbFilterLevelMenu:
		b.AnswerCallbackQuery(queryID, "", false)
		b.handlers.ShowLevelFilter(userID, messageID, b)

	case data == handlers.CbFilterTerrainMenu:
		b.AnswerCallbackQuery(queryID, "", false)
		b.handlers.ShowTerrainFilter(userID, messageID, b)

	case strings.HasPrefix(data, handlers.CbFilterLevel):
		b.handlers.ApplyLevelFilter(userID, queryID, messageID, strings.TrimPrefix(data, handlers.CbFilterLevel), b)

	case strings.HasPrefix(data, handlers.CbFilterTerrain):
		b.handlers.ApplyTerrainFilter(userID, queryID, messageID, strings.TrimPrefix(data, handlers.CbFilterTerrain), b)

	default:
		b.AnswerCallbackQuery(queryID, "", false)
	}
}
