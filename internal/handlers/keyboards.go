package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/internal/rules"
	"github.com/mroshb/apex_bot/internal/services"
	"github.com/mroshb/apex_bot/pkg/utils"
)

// Names and titles are cut to this many runes on buttons.
const maxButtonName = 32

// Callback data prefixes. Telegram caps callback data at 64 bytes, so
// payloads carry short IDs only.
const (
	CbGroupOpen    = "g:o:"
	CbGroupJoin    = "g:j:"
	CbGroupQR      = "g:qr:"
	CbGroupPrivacy = "g:pv:"
	CbGroupClose   = "g:c"
	CbGroupNew     = "g:n"
	CbGroupCode    = "g:k"

	CbRideView    = "r:v:"
	CbRideJoin    = "r:j:"
	CbRideLeave   = "r:l:"
	CbRideRequest = "r:q:"
	CbRideRoster  = "r:ro:"
	CbRideList    = "r:ls"

	CbFilterLevel       = "f:l:"
	CbFilterTerrain     = "f:t:"
	CbFilterLevelMenu   = "f:lm"
	CbFilterTerrainMenu = "f:tm"
	FilterAll           = "*"

	CbRequestApprove = "rq:y:"
	CbRequestDecline = "rq:n:"

	CbWizardLevel   = "w:l:"
	CbWizardTerrain = "w:t:"
	CbWizardSkip    = "w:skip"
	CbWizardAI      = "w:ai"
	CbWizardPublish = "w:ok"
	CbWizardCancel  = "w:x"
)

// MainMenuKeyboard creates the main menu keyboard
func MainMenuKeyboard(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton

	// Row 1 - Groups - Rides
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(BtnGroups),
		tgbotapi.NewKeyboardButton(BtnRides),
	))

	// Row 2 - New Ride - Join by Code
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(BtnNewRide),
		tgbotapi.NewKeyboardButton(BtnJoinCode),
	))

	// Row 3 - Profile - Help (- Requests)
	last := []tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButton(BtnProfile),
		tgbotapi.NewKeyboardButton(BtnHelp),
	}
	if isAdmin {
		last = append(last, tgbotapi.NewKeyboardButton(BtnRequests))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(last...))

	return tgbotapi.NewReplyKeyboard(rows...)
}

// CancelKeyboard is shown while a text step is waiting for input.
func CancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnCancel)),
	)
}

func DashboardKeyboard(d services.Dashboard) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, g := range d.YourGroups {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏍 "+utils.TruncateRunes(g.Name, maxButtonName), CbGroupOpen+g.ID),
		))
	}
	for _, g := range d.PublicGroups {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👀 "+utils.TruncateRunes(g.Name, maxButtonName), CbGroupOpen+g.ID),
			tgbotapi.NewInlineKeyboardButtonData("➕ Join", CbGroupJoin+g.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnJoinCode, CbGroupCode),
		tgbotapi.NewInlineKeyboardButtonData(BtnNewGroup, CbGroupNew),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// GroupKeyboard lists the group's rides and, for members, the group actions.
func GroupKeyboard(g models.Group, rides []models.Ride, member bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range rides {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.Level.Policy().Badge+" "+utils.TruncateRunes(r.Title, maxButtonName), CbRideView+r.ID),
		))
	}
	if member {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnShareQR, CbGroupQR+g.ID),
		))
	} else if !g.IsPrivate {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Join "+utils.TruncateRunes(g.Name, maxButtonName), CbGroupJoin+g.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnBack, CbGroupClose),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// RideListKeyboard lists filtered rides with the two filter menus on top.
func RideListKeyboard(rides []models.Ride) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏷 Level", CbFilterLevelMenu),
			tgbotapi.NewInlineKeyboardButtonData("🛣 Terrain", CbFilterTerrainMenu),
		),
	}
	for _, r := range rides {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s • %s", r.Level.Policy().Badge, utils.TruncateRunes(r.Title, maxButtonName), r.Date),
				CbRideView+r.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnBack, CbGroupClose),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// RideKeyboard offers exactly the action the membership state allows.
func RideKeyboard(r models.Ride, offer rules.Offer) tgbotapi.InlineKeyboardMarkup {
	var action tgbotapi.InlineKeyboardButton
	switch offer.Action {
	case rules.ActionJoin:
		action = tgbotapi.NewInlineKeyboardButtonData("✅ "+offer.Label, CbRideJoin+r.ID)
	case rules.ActionLeave:
		action = tgbotapi.NewInlineKeyboardButtonData("🚪 "+offer.Label, CbRideLeave+r.ID)
	case rules.ActionRequest:
		action = tgbotapi.NewInlineKeyboardButtonData("📨 "+offer.Label, CbRideRequest+r.ID)
	default:
		// Informational only: tapping it re-renders the card.
		action = tgbotapi.NewInlineKeyboardButtonData("⛔ "+offer.Label, CbRideView+r.ID)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(action),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnRoster, CbRideRoster+r.ID),
			tgbotapi.NewInlineKeyboardButtonData(BtnBack, CbRideList),
		),
	)
}

func LevelFilterKeyboard(current models.Level) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(marked(BtnAllLevels, current == ""), CbFilterLevel+FilterAll),
	}
	for _, l := range models.Levels() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			marked(l.Policy().Badge+" "+string(l), current == l), CbFilterLevel+string(l)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func TerrainFilterKeyboard(current models.Terrain) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(marked(BtnAllTerr, current == ""), CbFilterTerrain+FilterAll),
		),
	}
	var row []tgbotapi.InlineKeyboardButton
	for _, t := range models.Terrains() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			marked(t.Emoji()+" "+string(t), current == t), CbFilterTerrain+string(t)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func marked(label string, on bool) string {
	if on {
		return "• " + label
	}
	return label
}

func PrivacyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌍 Public", CbGroupPrivacy+"0"),
			tgbotapi.NewInlineKeyboardButtonData("🔒 Private", CbGroupPrivacy+"1"),
		),
	)
}

// WizardLevelKeyboard shows each level with the XP it requires.
func WizardLevelKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range models.Levels() {
		p := l.Policy()
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s %s (%d XP)", p.Badge, l, p.Label, p.MinPoints),
				CbWizardLevel+string(l)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func WizardTerrainKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, t := range models.Terrains() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(t.Emoji()+" "+string(t), CbWizardTerrain+string(t)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// SkipKeyboard lets optional wizard steps keep their default.
func SkipKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnSkip, CbWizardSkip),
			tgbotapi.NewInlineKeyboardButtonData(BtnCancel, CbWizardCancel),
		),
	)
}

func DescriptionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnAIWrite, CbWizardAI),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnSkip, CbWizardSkip),
			tgbotapi.NewInlineKeyboardButtonData(BtnCancel, CbWizardCancel),
		),
	)
}

func SummaryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnPublish, CbWizardPublish),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnRegen, CbWizardAI),
			tgbotapi.NewInlineKeyboardButtonData(BtnCancel, CbWizardCancel),
		),
	)
}

// RequestKeyboard carries rider and ride IDs for the admin's decision.
func RequestKeyboard(riderID, rideID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", CbRequestApprove+rideID+":"+riderID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Decline", CbRequestDecline+rideID+":"+riderID),
		),
	)
}
