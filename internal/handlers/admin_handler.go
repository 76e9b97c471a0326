package handlers

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/mroshb/apex_bot/internal/export"
	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/internal/rules"
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/logger"
	"github.com/mroshb/apex_bot/pkg/utils"
)

// ShowPendingRequests lists the requests waiting on the admin, one message
// per request so each carries its own decision buttons.
func (h *HandlerManager) ShowPendingRequests(userID int64, bot BotInterface) {
	admin, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}

	pending := h.Club.PendingRequests(admin.ID)
	if len(pending) == 0 {
		bot.SendMessage(userID, MsgNoRequests, nil)
		return
	}

	bot.SendMessage(userID, MsgRequestsHeader, nil)
	for _, p := range pending {
		text := fmt.Sprintf(MsgRequestToAdmin,
			html.EscapeString(p.Rider.Name), p.Rider.Points,
			html.EscapeString(p.Ride.Title), rules.Threshold(p.Ride))
		bot.SendMessage(userID, text, RequestKeyboard(p.Rider.ID, p.Ride.ID))
	}
}

// HandleRequestDecision applies an approve/decline button. payload is
// "<rideID>:<riderID>".
func (h *HandlerManager) HandleRequestDecision(userID int64, queryID string, messageID int, approve bool, payload string, bot BotInterface) {
	admin, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}
	rideID, riderID, found := strings.Cut(payload, ":")
	if !found {
		bot.AnswerCallbackQuery(queryID, "", false)
		return
	}

	rider, err := h.Club.User(riderID)
	if err != nil {
		h.answerError(queryID, userID, err, bot)
		return
	}
	ride, err := h.Club.Ride(rideID)
	if err != nil {
		h.answerError(queryID, userID, err, bot)
		return
	}

	if approve {
		ride, err = h.Club.ApproveRequest(admin.ID, rider.ID, ride.ID)
	} else {
		err = h.Club.DeclineRequest(admin.ID, rider.ID, ride.ID)
	}
	if err != nil {
		h.answerError(queryID, userID, err, bot)
		return
	}
	bot.AnswerCallbackQuery(queryID, "", false)

	name, title := html.EscapeString(rider.Name), html.EscapeString(ride.Title)
	if approve {
		bot.EditMessage(userID, messageID, fmt.Sprintf(MsgRequestApproved, name, title), nil)
		bot.SendMessage(rider.TelegramID, fmt.Sprintf(MsgRiderApproved, title), nil)
		return
	}
	bot.EditMessage(userID, messageID, fmt.Sprintf(MsgRequestDeclined, name, title), nil)
	bot.SendMessage(rider.TelegramID, fmt.Sprintf(MsgRiderDeclined, title), nil)
}

// HandleAward is the owner's /award <telegram_id> <points> command.
func (h *HandlerManager) HandleAward(userID int64, args string, bot BotInterface) {
	if !h.IsSuperAdmin(userID) {
		bot.SendMessage(userID, MsgNotAuthorized, nil)
		return
	}

	fields := strings.Fields(utils.NormalizeNumber(args))
	if len(fields) != 2 {
		bot.SendMessage(userID, MsgAwardUsage, nil)
		return
	}
	tgID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		bot.SendMessage(userID, MsgAwardUsage, nil)
		return
	}
	delta, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		bot.SendMessage(userID, MsgAwardUsage, nil)
		return
	}

	target, err := h.Club.UserByTelegram(tgID)
	if err != nil {
		h.replyError(userID, err, bot)
		return
	}
	updated, err := h.Club.AwardPoints(target.ID, delta)
	if err != nil {
		h.replyError(userID, err, bot)
		return
	}

	bot.SendMessage(userID, fmt.Sprintf(MsgAwardDone, html.EscapeString(updated.Name), updated.Points), nil)
	bot.SendMessage(updated.TelegramID, fmt.Sprintf(MsgAwardReceived, delta, updated.Points), nil)
	logger.Info("Admin awarded points", "admin_id", userID, "user_id", updated.ID, "delta", delta)
}

// HandleAdminStats shows club statistics to the owner.
func (h *HandlerManager) HandleAdminStats(userID int64, bot BotInterface) {
	if !h.IsSuperAdmin(userID) {
		bot.SendMessage(userID, MsgNotAuthorized, nil)
		return
	}

	st := h.Club.Stats()
	statsMsg := fmt.Sprintf(`📊 <b>Club stats</b>

👥 Riders: %d
🏍 Groups: %d (%d private)
🗓 Rides: %d (%d full)
📥 Pending requests: %d`,
		st.Users,
		st.Groups, st.PrivateGroups,
		st.Rides, st.FullRides,
		st.PendingRequests)

	bot.SendMessage(userID, statsMsg, nil)
	logger.Info("Admin viewed stats", "admin_id", userID)
}

// exportableGroup returns the open group when the user may manage it.
func (h *HandlerManager) exportableGroup(userID int64, bot BotInterface) (models.Group, bool) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return models.Group{}, false
	}
	group, ok := h.Club.ActiveGroup(user.ID)
	if !ok {
		bot.SendMessage(userID, MsgExportNoGroup, nil)
		return models.Group{}, false
	}
	if group.AdminID != user.ID && !h.IsSuperAdmin(userID) {
		bot.SendMessage(userID, MsgExportForbidden, nil)
		return models.Group{}, false
	}
	return group, true
}

// HandleExport sends the open group's rides and rosters as a workbook.
func (h *HandlerManager) HandleExport(userID int64, bot BotInterface) {
	group, ok := h.exportableGroup(userID, bot)
	if !ok {
		return
	}

	rides := h.Club.RidesInGroup(group.ID)
	rosters := make(map[string][]models.User, len(rides))
	for _, r := range rides {
		roster, err := h.Club.RideRoster(r.ID)
		if err != nil {
			h.replyError(userID, err, bot)
			return
		}
		rosters[r.ID] = roster
	}

	var buf bytes.Buffer
	if err := export.WriteGroupRides(&buf, rides, rosters); err != nil {
		h.replyError(userID, errors.Wrap(err, errors.ErrCodeInternalError, "failed to export rides"), bot)
		return
	}

	bot.SendDocument(userID, export.FileName(group), buf.Bytes(),
		fmt.Sprintf(MsgExportCaption, html.EscapeString(group.Name)))
	logger.Info("Rides exported", "group_id", group.ID, "rides", len(rides))
}

// HandleScheduleUpload imports a ride schedule workbook into the open group.
// Valid rows become rides led by whoever each row names; invalid rows are
// reported back and skipped.
func (h *HandlerManager) HandleScheduleUpload(userID int64, fileName string, data []byte, bot BotInterface) {
	group, ok := h.exportableGroup(userID, bot)
	if !ok {
		return
	}
	user, _ := h.Club.UserByTelegram(userID)
	if !user.InGroup(group.ID) {
		bot.SendMessage(userID, MsgImportNotMember, nil)
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		bot.SendMessage(userID, MsgImportWrongType, nil)
		return
	}

	inputs, rowErrs, err := export.ParseRideSchedule(bytes.NewReader(data))
	if err != nil {
		bot.SendMessage(userID, "❌ "+html.EscapeString(errors.MessageOf(err)), nil)
		return
	}

	created := 0
	for _, in := range inputs {
		if _, err := h.Club.CreateRide(user.ID, group.ID, in); err != nil {
			msg := in.Title + ": " + errors.MessageOf(err)
			rowErrs = append(rowErrs, export.RowError{Err: errors.Wrap(err, errors.CodeOf(err), msg)})
			continue
		}
		created++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, MsgImportDone, created, html.EscapeString(group.Name))
	for i, re := range rowErrs {
		if i == 10 {
			fmt.Fprintf(&sb, "\n… and %d more", len(rowErrs)-i)
			break
		}
		if re.Row > 0 {
			fmt.Fprintf(&sb, "\nRow %d: %s", re.Row, html.EscapeString(errors.MessageOf(re.Err)))
		} else {
			fmt.Fprintf(&sb, "\n%s", html.EscapeString(errors.MessageOf(re.Err)))
		}
	}
	bot.SendMessage(userID, sb.String(), nil)
	logger.Info("Ride schedule imported", "group_id", group.ID, "created", created, "rejected", len(rowErrs))
}
