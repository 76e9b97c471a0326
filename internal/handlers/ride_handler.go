package handlers

import (
	"fmt"
	"html"
	"strings"

	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/internal/rules"
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/logger"
)

// ShowRides lists the rides of the open group after the user's filters.
func (h *HandlerManager) ShowRides(userID int64, messageID int, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}

	rides, err := h.Club.GroupRides(user.ID)
	if errors.Is(err, errors.ErrNoActiveGroupContext) {
		bot.SendMessage(userID, MsgNoActiveGroup, nil)
		return
	}
	if err != nil {
		h.replyError(userID, err, bot)
		return
	}
	group, _ := h.Club.ActiveGroup(user.ID)

	var sb strings.Builder
	fmt.Fprintf(&sb, MsgRidesHeader, html.EscapeString(group.Name))
	sb.WriteString("\n" + filterLabel(h.Club.View(user.ID)) + "\n\n")
	if len(rides) == 0 {
		sb.WriteString(MsgNoRides)
	}
	for i, r := range rides {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(RideLine(r))
	}

	if messageID != 0 {
		bot.EditMessage(userID, messageID, sb.String(), RideListKeyboard(rides))
		return
	}
	bot.SendMessage(userID, sb.String(), RideListKeyboard(rides))
}

// ShowRide renders one ride with the single action its state allows.
func (h *HandlerManager) ShowRide(userID int64, rideID string, messageID int, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}

	ride, err := h.Club.Ride(rideID)
	if err != nil {
		h.replyError(userID, err, bot)
		return
	}
	offer, err := h.Club.RideOffer(user.ID, ride.ID)
	if err != nil {
		h.replyError(userID, err, bot)
		return
	}

	text := rideCardWithOffer(ride, offer)
	if messageID != 0 {
		bot.EditMessage(userID, messageID, text, RideKeyboard(ride, offer))
		return
	}
	bot.SendMessage(userID, text, RideKeyboard(ride, offer))
}

// HandleRideAction runs join, leave or request and redraws the ride card.
func (h *HandlerManager) HandleRideAction(userID int64, queryID string, messageID int, action rules.Action, rideID string, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}

	var (
		ride models.Ride
		err  error
		note string
	)
	switch action {
	case rules.ActionJoin:
		ride, err = h.Club.JoinRide(user.ID, rideID)
		note = fmt.Sprintf("You're in: %s", ride.Title)
	case rules.ActionLeave:
		ride, err = h.Club.LeaveRide(user.ID, rideID)
		note = fmt.Sprintf("You left %s", ride.Title)
	case rules.ActionRequest:
		ride, err = h.Club.RequestRide(user.ID, rideID)
		note = "Request sent"
	default:
		bot.AnswerCallbackQuery(queryID, "", false)
		return
	}
	if err != nil {
		h.answerError(queryID, userID, err, bot)
		// The card may be stale, for example a ride that filled up meanwhile.
		h.ShowRide(userID, rideID, messageID, bot)
		return
	}
	bot.AnswerCallbackQuery(queryID, note, false)

	if action == rules.ActionRequest {
		h.notifyAdminOfRequest(user, ride, bot)
	}
	h.ShowRide(userID, ride.ID, messageID, bot)
}

func (h *HandlerManager) notifyAdminOfRequest(rider models.User, ride models.Ride, bot BotInterface) {
	group, err := h.Club.Group(ride.GroupID)
	if err != nil {
		return
	}
	admin, err := h.Club.User(group.AdminID)
	if err != nil {
		// Demo groups are administered by accounts that never logged in.
		logger.Debug("Request admin is not registered", "group_id", group.ID, "admin_id", group.AdminID)
		return
	}

	text := fmt.Sprintf(MsgRequestToAdmin,
		html.EscapeString(rider.Name), rider.Points,
		html.EscapeString(ride.Title), rules.Threshold(ride))
	bot.SendMessage(admin.TelegramID, text, RequestKeyboard(rider.ID, ride.ID))
}

func (h *HandlerManager) ShowRoster(userID int64, queryID string, rideID string, bot BotInterface) {
	ride, err := h.Club.Ride(rideID)
	if err != nil {
		h.answerError(queryID, userID, err, bot)
		return
	}
	roster, err := h.Club.RideRoster(ride.ID)
	if err != nil {
		h.answerError(queryID, userID, err, bot)
		return
	}
	bot.AnswerCallbackQuery(queryID, "", false)

	var sb strings.Builder
	fmt.Fprintf(&sb, MsgRosterHeader, html.EscapeString(ride.Title), ride.CurrentRiders, ride.MaxRiders)
	sb.WriteString("\n\n")
	if len(roster) == 0 {
		sb.WriteString(MsgRosterEmpty)
	}
	for _, u := range roster {
		fmt.Fprintf(&sb, "• %s (%d XP)\n", html.EscapeString(u.Name), u.Points)
	}
	bot.SendMessage(userID, strings.TrimRight(sb.String(), "\n"), nil)
}

func (h *HandlerManager) ShowLevelFilter(userID int64, messageID int, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}
	bot.EditMessage(userID, messageID, MsgRideLevel, LevelFilterKeyboard(h.Club.View(user.ID).LevelFilter))
}

func (h *HandlerManager) ShowTerrainFilter(userID int64, messageID int, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}
	bot.EditMessage(userID, messageID, MsgRideTerrain, TerrainFilterKeyboard(h.Club.View(user.ID).TerrainFilter))
}

// ApplyLevelFilter sets or clears (FilterAll) the level filter and redraws the list.
func (h *HandlerManager) ApplyLevelFilter(userID int64, queryID string, messageID int, value string, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}
	var level models.Level
	if value != FilterAll {
		level = models.Level(value)
	}
	if err := h.Club.SetLevelFilter(user.ID, level); err != nil {
		h.answerError(queryID, userID, err, bot)
		return
	}
	bot.AnswerCallbackQuery(queryID, "", false)
	h.ShowRides(userID, messageID, bot)
}

func (h *HandlerManager) ApplyTerrainFilter(userID int64, queryID string, messageID int, value string, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}
	var terrain models.Terrain
	if value != FilterAll {
		terrain = models.Terrain(value)
	}
	if err := h.Club.SetTerrainFilter(user.ID, terrain); err != nil {
		h.answerError(queryID, userID, err, bot)
		return
	}
	bot.AnswerCallbackQuery(queryID, "", false)
	h.ShowRides(userID, messageID, bot)
}
