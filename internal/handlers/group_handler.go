package handlers

import (
	"fmt"
	"html"
	"strings"

	"github.com/mroshb/apex_bot/internal/qr"
	"github.com/mroshb/apex_bot/internal/rules"
	"github.com/mroshb/apex_bot/internal/security"
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/logger"
)

// ShowDashboard lists the user's groups and the public ones they can join.
// A non-zero messageID edits that message in place.
func (h *HandlerManager) ShowDashboard(userID int64, messageID int, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}
	h.Club.CloseGroup(user.ID)

	d, err := h.Club.Dashboard(user.ID)
	if err != nil {
		h.replyError(userID, err, bot)
		return
	}

	text := dashboardText(d)
	if messageID != 0 {
		bot.EditMessage(userID, messageID, text, DashboardKeyboard(d))
		return
	}
	bot.SendMessage(userID, text, DashboardKeyboard(d))
}

func (h *HandlerManager) StartJoinByCode(userID int64, session *UserSession, bot BotInterface) {
	if _, ok := h.requireUser(userID, bot); !ok {
		return
	}
	session.Reset()
	session.State = StateJoinCode
	bot.SendMessage(userID, MsgEnterJoinCode, CancelKeyboard())
}

// HandleJoinCodeInput consumes the text sent after StartJoinByCode.
func (h *HandlerManager) HandleJoinCodeInput(userID int64, text string, session *UserSession, bot BotInterface) {
	session.Reset()
	h.HandleJoinCode(userID, text, bot)
}

// HandleJoinCode joins the group a code points at, private or not, and opens it.
func (h *HandlerManager) HandleJoinCode(userID int64, input string, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}
	menu := h.mainMenu(userID)

	code, err := security.NormalizeJoinCode(input)
	if err != nil {
		bot.SendMessage(userID, "❌ "+errors.MessageOf(errors.ErrInvalidCode), menu)
		return
	}

	group, err := h.Club.JoinGroupByCode(user.ID, code)
	switch {
	case errors.Is(err, errors.ErrAlreadyMember):
		bot.SendMessage(userID, fmt.Sprintf(MsgAlreadyInGroup, html.EscapeString(group.Name)), menu)
	case err != nil:
		h.replyError(userID, err, bot)
		return
	default:
		bot.SendMessage(userID, fmt.Sprintf(MsgJoinedGroup, html.EscapeString(group.Name)), menu)
	}
	h.OpenGroup(userID, group.ID, 0, bot)
}

// JoinPublicGroup handles the Join button next to a public group.
func (h *HandlerManager) JoinPublicGroup(userID int64, queryID string, messageID int, groupID string, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}

	group, err := h.Club.JoinPublicGroup(user.ID, groupID)
	if err != nil {
		h.answerError(queryID, userID, err, bot)
		return
	}
	bot.AnswerCallbackQuery(queryID, fmt.Sprintf("Joined %s", group.Name), false)
	h.ShowDashboard(userID, messageID, bot)
}

// OpenGroup shows a group's card and its rides.
func (h *HandlerManager) OpenGroup(userID int64, groupID string, messageID int, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}

	group, err := h.Club.OpenGroup(user.ID, groupID)
	if err != nil {
		h.replyError(userID, err, bot)
		return
	}
	rides := h.Club.RidesInGroup(group.ID)

	text := GroupCard(group)
	if len(rides) == 0 {
		text += "\n\n" + MsgNoRides
	} else {
		text += fmt.Sprintf("\n\n🗓 %d upcoming rides", len(rides))
	}

	kb := GroupKeyboard(group, rides, user.InGroup(group.ID))
	if messageID != 0 {
		bot.EditMessage(userID, messageID, text, kb)
		return
	}
	bot.SendMessage(userID, text, kb)
}

func (h *HandlerManager) StartGroupCreation(userID int64, session *UserSession, bot BotInterface) {
	if _, ok := h.requireUser(userID, bot); !ok {
		return
	}
	session.Reset()
	session.State = StateGroupName
	bot.SendMessage(userID, MsgGroupCreateName, CancelKeyboard())
}

// HandleGroupCreationInput drives the name and description steps.
func (h *HandlerManager) HandleGroupCreationInput(userID int64, text string, session *UserSession, bot BotInterface) {
	switch session.State {
	case StateGroupName:
		name, err := security.CleanName(text)
		if err != nil {
			bot.SendMessage(userID, MsgEmptyText, nil)
			return
		}
		session.Data["name"] = name
		session.State = StateGroupDesc
		bot.SendMessage(userID, MsgGroupCreateDesc, CancelKeyboard())

	case StateGroupDesc:
		session.Data["description"] = security.CleanDescription(text)
		session.State = StateGroupPrivacy
		bot.SendMessage(userID, MsgGroupPrivacy, PrivacyKeyboard())

	case StateGroupPrivacy:
		bot.SendMessage(userID, MsgGroupPrivacy, PrivacyKeyboard())
	}
}

// HandleGroupPrivacy finishes group creation once the user picks a visibility.
func (h *HandlerManager) HandleGroupPrivacy(userID int64, queryID string, private bool, session *UserSession, bot BotInterface) {
	if session.State != StateGroupPrivacy {
		bot.AnswerCallbackQuery(queryID, "", false)
		return
	}
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}

	name, _ := session.Data["name"].(string)
	desc, _ := session.Data["description"].(string)
	session.Reset()

	group, err := h.Club.CreateGroup(user.ID, rules.GroupInput{
		Name:        name,
		Description: desc,
		IsPrivate:   private,
	})
	if err != nil {
		h.answerError(queryID, userID, err, bot)
		return
	}
	bot.AnswerCallbackQuery(queryID, "", false)

	link := qr.JoinLink(bot.Username(), group.Code)
	bot.SendMessage(userID,
		fmt.Sprintf(MsgGroupCreated, html.EscapeString(group.Name), group.Code, link),
		h.mainMenu(userID))
	h.OpenGroup(userID, group.ID, 0, bot)
}

// SendGroupQR sends a scannable invite to a group the user belongs to.
func (h *HandlerManager) SendGroupQR(userID int64, queryID string, groupID string, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}
	group, err := h.Club.Group(groupID)
	if err != nil || !user.InGroup(group.ID) {
		bot.AnswerCallbackQuery(queryID, MsgNotAuthorized, true)
		return
	}

	link := qr.JoinLink(bot.Username(), group.Code)
	png, err := qr.PNG(link)
	if err != nil {
		logger.Error("Failed to render join QR", "group_id", group.ID, "error", err)
		bot.AnswerCallbackQuery(queryID, "Could not create the QR code.", true)
		return
	}
	bot.AnswerCallbackQuery(queryID, "", false)

	caption := fmt.Sprintf(MsgGroupQRCaption, html.EscapeString(group.Name)) +
		fmt.Sprintf("\n\nCode: <code>%s</code>\n%s", group.Code, link)
	bot.SendPhotoBytes(userID, "join-"+strings.ToLower(group.Code)+".png", png, caption)
}
