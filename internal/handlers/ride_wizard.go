package handlers

import (
	"context"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mroshb/apex_bot/internal/ai"
	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/internal/rules"
	"github.com/mroshb/apex_bot/internal/security"
	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/mroshb/apex_bot/pkg/logger"
	"github.com/mroshb/apex_bot/pkg/utils"
)

// Prefilled ride form values.
const (
	DefaultDistance  = 120.0
	DefaultElevation = 2500
	DefaultLevel     = models.LevelC
	DefaultTerrain   = models.TerrainHighway
	DefaultMaxRiders = 15
)

const (
	keyDraft   = "draft"
	keyGroupID = "group_id"
)

func newDraft(leader string) *rules.RideInput {
	return &rules.RideInput{
		Distance:   DefaultDistance,
		Elevation:  DefaultElevation,
		Level:      DefaultLevel,
		Terrain:    DefaultTerrain,
		MaxRiders:  DefaultMaxRiders,
		LeaderName: leader,
	}
}

func draftOf(session *UserSession) *rules.RideInput {
	d, _ := session.Data[keyDraft].(*rules.RideInput)
	return d
}

// StartRideWizard opens the ride form for the user's active group. The
// creator leads the ride.
func (h *HandlerManager) StartRideWizard(userID int64, session *UserSession, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}
	group, ok := h.Club.ActiveGroup(user.ID)
	if !ok {
		bot.SendMessage(userID, MsgNoActiveGroup, nil)
		return
	}
	if !user.InGroup(group.ID) {
		bot.SendMessage(userID, "❌ Join this group before posting a ride.", nil)
		return
	}

	session.Reset()
	session.State = StateRideTitle
	session.Data[keyDraft] = newDraft(user.Name)
	session.Data[keyGroupID] = group.ID

	bot.SendMessage(userID,
		fmt.Sprintf("➕ New ride in <b>%s</b>\n\n%s", html.EscapeString(group.Name), MsgRideTitle),
		CancelKeyboard())
}

// HandleRideWizardInput consumes a text answer for the current step.
func (h *HandlerManager) HandleRideWizardInput(userID int64, text string, session *UserSession, bot BotInterface) {
	draft := draftOf(session)
	if draft == nil {
		session.Reset()
		return
	}
	text = strings.TrimSpace(text)

	switch session.State {
	case StateRideTitle:
		title, err := security.CleanTitle(text)
		if err != nil {
			bot.SendMessage(userID, MsgEmptyText, nil)
			return
		}
		draft.Title = title
		h.askStep(userID, StateRideDate, session, bot)

	case StateRideDate:
		d, err := time.Parse(models.RideDateLayout, utils.NormalizeNumber(text))
		if err != nil {
			bot.SendMessage(userID, MsgInvalidDate, nil)
			return
		}
		draft.Date = d.Format(models.RideDateLayout)
		h.askStep(userID, StateRideTime, session, bot)

	case StateRideTime:
		t, err := time.Parse(models.RideTimeLayout, utils.NormalizeNumber(text))
		if err != nil {
			bot.SendMessage(userID, MsgInvalidTime, nil)
			return
		}
		draft.Time = t.Format(models.RideTimeLayout)
		h.askStep(userID, StateRideDistance, session, bot)

	case StateRideDistance:
		v, err := strconv.ParseFloat(utils.NormalizeNumber(text), 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			bot.SendMessage(userID, MsgInvalidNumber, nil)
			return
		}
		draft.Distance = v
		h.askStep(userID, StateRideElevation, session, bot)

	case StateRideElevation:
		v, err := strconv.Atoi(utils.NormalizeNumber(text))
		if err != nil || v < 0 {
			bot.SendMessage(userID, MsgInvalidNumber, nil)
			return
		}
		draft.Elevation = v
		h.askStep(userID, StateRideLevel, session, bot)

	case StateRideLevel:
		l, err := models.ParseLevel(text)
		if err != nil {
			h.askStep(userID, StateRideLevel, session, bot)
			return
		}
		draft.Level = l
		h.askStep(userID, StateRideTerrain, session, bot)

	case StateRideTerrain:
		t, err := models.ParseTerrain(text)
		if err != nil {
			h.askStep(userID, StateRideTerrain, session, bot)
			return
		}
		draft.Terrain = t
		h.askStep(userID, StateRideMax, session, bot)

	case StateRideMax:
		v, err := strconv.Atoi(utils.NormalizeNumber(text))
		if err != nil || v < 1 {
			bot.SendMessage(userID, MsgInvalidNumber, nil)
			return
		}
		draft.MaxRiders = v
		h.askStep(userID, StateRideMarshall, session, bot)

	case StateRideMarshall:
		draft.MarshallName, _ = security.CleanName(text)
		h.askStep(userID, StateRideTail, session, bot)

	case StateRideTail:
		draft.TailName, _ = security.CleanName(text)
		h.askStep(userID, StateRideDesc, session, bot)

	case StateRideDesc:
		draft.Description = security.CleanDescription(text)
		h.askStep(userID, StateRideTips, session, bot)

	case StateRideTips:
		draft.Tips = security.CleanDescription(text)
		h.askStep(userID, StateRideConfirm, session, bot)

	case StateRideAI:
		bot.SendMessage(userID, MsgRideAIBusy, nil)

	case StateRideConfirm:
		h.askStep(userID, StateRideConfirm, session, bot)
	}
}

// HandleRideWizardCallback handles the inline buttons of the ride form.
func (h *HandlerManager) HandleRideWizardCallback(userID int64, queryID string, data string, session *UserSession, bot BotInterface) {
	draft := draftOf(session)
	if draft == nil {
		bot.AnswerCallbackQuery(queryID, "This form has expired.", false)
		return
	}

	switch {
	case data == CbWizardCancel:
		session.Reset()
		bot.AnswerCallbackQuery(queryID, MsgCancelled, false)
		bot.SendMessage(userID, MsgCancelled, h.mainMenu(userID))

	case strings.HasPrefix(data, CbWizardLevel) && session.State == StateRideLevel:
		l, err := models.ParseLevel(strings.TrimPrefix(data, CbWizardLevel))
		if err != nil {
			bot.AnswerCallbackQuery(queryID, "", false)
			return
		}
		draft.Level = l
		bot.AnswerCallbackQuery(queryID, "", false)
		h.askStep(userID, StateRideTerrain, session, bot)

	case strings.HasPrefix(data, CbWizardTerrain) && session.State == StateRideTerrain:
		t, err := models.ParseTerrain(strings.TrimPrefix(data, CbWizardTerrain))
		if err != nil {
			bot.AnswerCallbackQuery(queryID, "", false)
			return
		}
		draft.Terrain = t
		bot.AnswerCallbackQuery(queryID, "", false)
		h.askStep(userID, StateRideMax, session, bot)

	case data == CbWizardSkip:
		bot.AnswerCallbackQuery(queryID, "", false)
		h.skipStep(userID, session, bot)

	case data == CbWizardAI && (session.State == StateRideDesc || session.State == StateRideConfirm):
		h.generateDescription(userID, queryID, session, bot)

	case data == CbWizardAI && session.State == StateRideAI:
		bot.AnswerCallbackQuery(queryID, MsgRideAIBusy, false)

	case data == CbWizardPublish && session.State == StateRideConfirm:
		bot.AnswerCallbackQuery(queryID, "", false)
		h.publishRide(userID, session, bot)

	default:
		bot.AnswerCallbackQuery(queryID, "", false)
	}
}

// skipStep keeps the prefilled value of an optional step.
func (h *HandlerManager) skipStep(userID int64, session *UserSession, bot BotInterface) {
	next := map[string]string{
		StateRideDistance:  StateRideElevation,
		StateRideElevation: StateRideLevel,
		StateRideLevel:     StateRideTerrain,
		StateRideTerrain:   StateRideMax,
		StateRideMax:       StateRideMarshall,
		StateRideMarshall:  StateRideTail,
		StateRideTail:      StateRideDesc,
		StateRideDesc:      StateRideTips,
		StateRideTips:      StateRideConfirm,
	}
	if n, ok := next[session.State]; ok {
		h.askStep(userID, n, session, bot)
	}
}

// askStep moves the form to state and sends its question.
func (h *HandlerManager) askStep(userID int64, state string, session *UserSession, bot BotInterface) {
	session.State = state
	draft := draftOf(session)

	switch state {
	case StateRideTitle:
		bot.SendMessage(userID, MsgRideTitle, CancelKeyboard())
	case StateRideDate:
		bot.SendMessage(userID, MsgRideDate, CancelKeyboard())
	case StateRideTime:
		bot.SendMessage(userID, MsgRideTime, CancelKeyboard())
	case StateRideDistance:
		bot.SendMessage(userID, fmt.Sprintf(MsgRideDistance, formatMiles(draft.Distance)), SkipKeyboard())
	case StateRideElevation:
		bot.SendMessage(userID, fmt.Sprintf(MsgRideElevation, draft.Elevation), SkipKeyboard())
	case StateRideLevel:
		bot.SendMessage(userID, MsgRideLevel, WizardLevelKeyboard())
	case StateRideTerrain:
		bot.SendMessage(userID, MsgRideTerrain, WizardTerrainKeyboard())
	case StateRideMax:
		bot.SendMessage(userID, fmt.Sprintf(MsgRideMax, draft.MaxRiders), SkipKeyboard())
	case StateRideMarshall:
		bot.SendMessage(userID, MsgRideMarshall, SkipKeyboard())
	case StateRideTail:
		bot.SendMessage(userID, MsgRideTail, SkipKeyboard())
	case StateRideDesc:
		bot.SendMessage(userID, MsgRideDesc, DescriptionKeyboard())
	case StateRideTips:
		bot.SendMessage(userID, MsgRideTips, SkipKeyboard())
	case StateRideConfirm:
		bot.SendMessage(userID, fmt.Sprintf(MsgRideSummary, RideCard(previewRide(draft))), SummaryKeyboard())
	}
}

// previewRide shows the draft the way the published ride will look.
func previewRide(d *rules.RideInput) models.Ride {
	minPoints, _ := models.MinPointsFor(d.Level)
	return models.Ride{
		Title:         d.Title,
		Description:   d.Description,
		Tips:          d.Tips,
		Date:          d.Date,
		Time:          d.Time,
		Distance:      d.Distance,
		Elevation:     d.Elevation,
		Level:         d.Level,
		Terrain:       d.Terrain,
		MinPoints:     minPoints,
		MaxRiders:     d.MaxRiders,
		CurrentRiders: 1,
		LeaderName:    d.LeaderName,
		MarshallName:  d.MarshallName,
		TailName:      d.TailName,
	}
}

// generateDescription asks the AI provider for copy without blocking the
// user's update worker. The result is applied on that worker only if the
// same form is still waiting for it.
func (h *HandlerManager) generateDescription(userID int64, queryID string, session *UserSession, bot BotInterface) {
	if h.AILimiter != nil && !h.AILimiter.Allow(userID) {
		wait := int(math.Ceil(h.AILimiter.RetryAfter(userID).Seconds()))
		bot.AnswerCallbackQuery(queryID, fmt.Sprintf(MsgRateLimited, wait), true)
		return
	}
	bot.AnswerCallbackQuery(queryID, "", false)

	draft := draftOf(session)
	prompt := ai.RidePrompt{
		Title:     draft.Title,
		Level:     draft.Level,
		Distance:  draft.Distance,
		Elevation: draft.Elevation,
		Terrain:   draft.Terrain,
	}
	session.State = StateRideAI
	bot.SendMessage(userID, MsgRideAIWorking, nil)

	timeout := 30 * time.Second
	if h.Config != nil {
		timeout = h.Config.GetAITimeout()
	}

	h.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		out := h.AI.Generate(ctx, prompt)

		bot.RunForUser(userID, func() {
			current := bot.Session(userID)
			if current.State != StateRideAI || draftOf(current) != draft {
				logger.Debug("Discarding AI copy for abandoned form", "user_id", userID)
				return
			}
			draft.Description = security.CleanDescription(out.Description)
			draft.Tips = security.CleanDescription(out.Tips)
			h.askStep(userID, StateRideConfirm, current, bot)
		})
	})
}

func (h *HandlerManager) publishRide(userID int64, session *UserSession, bot BotInterface) {
	user, ok := h.requireUser(userID, bot)
	if !ok {
		return
	}
	draft := draftOf(session)
	groupID, _ := session.Data[keyGroupID].(string)

	ride, err := h.Club.CreateRide(user.ID, groupID, *draft)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeValidation {
			// Keep the form so the user can cancel or fix it.
			bot.SendMessage(userID, "❌ "+html.EscapeString(errors.MessageOf(err)), nil)
			return
		}
		session.Reset()
		h.replyError(userID, err, bot)
		return
	}

	session.Reset()
	bot.SendMessage(userID, fmt.Sprintf(MsgRidePublished, html.EscapeString(ride.Title)), h.mainMenu(userID))
	h.ShowRide(userID, ride.ID, 0, bot)
}
