package handlers

import (
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/internal/qr"
	"github.com/mroshb/apex_bot/internal/security"
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/logger"
)

type BotInterface interface {
	SendMessage(chatID int64, text string, keyboard interface{}) int
	EditMessage(chatID int64, messageID int, text string, keyboard interface{})
	SendPhotoBytes(chatID int64, name string, data []byte, caption string) int
	SendDocument(chatID int64, name string, data []byte, caption string) int
	AnswerCallbackQuery(queryID string, text string, showAlert bool)
	Username() string

	// Session returns the live conversation state of a user.
	Session(userID int64) *UserSession
	// RunForUser queues fn behind the user's pending updates.
	RunForUser(userID int64, fn func())
}

type UserSession struct {
	State string
	Data  map[string]interface{}
}

// Reset returns the session to the idle state.
func (s *UserSession) Reset() {
	s.State = StateNone
	s.Data = make(map[string]interface{})
}

const (
	StateNone = ""

	StateJoinCode = "join_code"

	StateGroupName    = "group_name"
	StateGroupDesc    = "group_desc"
	StateGroupPrivacy = "group_privacy"

	StateRideTitle     = "ride_title"
	StateRideDate      = "ride_date"
	StateRideTime      = "ride_time"
	StateRideDistance  = "ride_distance"
	StateRideElevation = "ride_elevation"
	StateRideLevel     = "ride_level"
	StateRideTerrain   = "ride_terrain"
	StateRideMax       = "ride_max"
	StateRideMarshall  = "ride_marshall"
	StateRideTail      = "ride_tail"
	StateRideDesc      = "ride_desc"
	StateRideAI        = "ride_ai"
	StateRideTips      = "ride_tips"
	StateRideConfirm   = "ride_confirm"
)

// HandleStart logs the rider in and handles a join_<CODE> deep link.
func (h *HandlerManager) HandleStart(userID int64, displayName, payload string, bot BotInterface) {
	name, err := security.CleanName(displayName)
	if err != nil {
		name = "Rider"
	}

	user, created, err := h.Club.Login(userID, name)
	if err != nil {
		bot.SendMessage(userID, MsgGenericError, nil)
		return
	}

	if created {
		bot.SendMessage(userID, fmt.Sprintf(MsgWelcome, html.EscapeString(user.Name)), h.mainMenu(userID))
	} else {
		bot.SendMessage(userID, fmt.Sprintf(MsgWelcomeBack, html.EscapeString(user.Name)), h.mainMenu(userID))
	}

	if code, ok := qr.CodeFromPayload(payload); ok {
		h.HandleJoinCode(userID, code, bot)
		return
	}
	h.ShowDashboard(userID, 0, bot)
}

// mainMenu adds the Requests button for riders who administer a group.
func (h *HandlerManager) mainMenu(userID int64) tgbotapi.ReplyKeyboardMarkup {
	isAdmin := h.IsSuperAdmin(userID)
	if user, err := h.Club.UserByTelegram(userID); err == nil && len(h.Club.AdminGroups(user.ID)) > 0 {
		isAdmin = true
	}
	return MainMenuKeyboard(isAdmin)
}

// requireUser resolves the Telegram user or tells them to /start.
func (h *HandlerManager) requireUser(userID int64, bot BotInterface) (models.User, bool) {
	user, err := h.Club.UserByTelegram(userID)
	if err != nil {
		bot.SendMessage(userID, MsgNotRegistered, nil)
		return models.User{}, false
	}
	return user, true
}

func (h *HandlerManager) ShowProfile(userID int64, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}

	level := models.LevelD
	for _, l := range models.Levels() {
		if user.Points >= l.Policy().MinPoints {
			level = l
			break
		}
	}
	policy := level.Policy()

	text := fmt.Sprintf(MsgProfile,
		html.EscapeString(user.Name),
		user.Points,
		policy.Badge, level, policy.Label,
		len(user.JoinedGroups),
		len(user.JoinedRides),
		len(user.RequestedRides),
	)
	bot.SendMessage(userID, text, nil)
}

func (h *HandlerManager) ShowHelp(userID int64, bot BotInterface) {
	text := MsgHelp
	if h.IsSuperAdmin(userID) {
		text += MsgHelpSuperAdmin
	}
	bot.SendMessage(userID, text, h.mainMenu(userID))
}

// Cancel confirms an abandoned flow and restores the main menu.
func (h *HandlerManager) Cancel(userID int64, bot BotInterface) {
	bot.SendMessage(userID, MsgCancelled, h.mainMenu(userID))
}

// HandleFreeText treats text outside any flow as a join code when it looks
// like one, and otherwise points the user at the menu.
func (h *HandlerManager) HandleFreeText(userID int64, text string, bot BotInterface) {
	if _, err := security.NormalizeJoinCode(text); err == nil {
		h.HandleJoinCode(userID, text, bot)
		return
	}
	h.ShowHelp(userID, bot)
}

// replyError shows the user-facing message of err. Internal failures are
// logged and replaced with a generic apology.
func (h *HandlerManager) replyError(userID int64, err error, bot BotInterface) {
	if errors.CodeOf(err) == errors.ErrCodeInternalError || errors.CodeOf(err) == "" {
		logger.Error("Handler failed", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, nil)
		return
	}
	bot.SendMessage(userID, "❌ "+html.EscapeString(errors.MessageOf(err)), nil)
}

// answerError is replyError for callback queries: the message goes into
// the callback toast.
func (h *HandlerManager) answerError(queryID string, userID int64, err error, bot BotInterface) {
	if errors.CodeOf(err) == errors.ErrCodeInternalError || errors.CodeOf(err) == "" {
		logger.Error("Callback failed", "user_id", userID, "error", err)
		bot.AnswerCallbackQuery(queryID, "Something went wrong, please try again.", true)
		return
	}
	bot.AnswerCallbackQuery(queryID, errors.MessageOf(err), true)
}
