package handlers

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/mroshb/apex_bot/internal/models"
	"github.com/mroshb/apex_bot/internal/rules"
	"github.com/mroshb/apex_bot/internal/services"
)

// Main menu buttons
const (
	BtnGroups    = "🏍 Groups"
	BtnRides     = "🗓 Rides"
	BtnNewRide   = "➕ New Ride"
	BtnJoinCode  = "🔑 Join by Code"
	BtnProfile   = "👤 Profile"
	BtnHelp      = "❓ Help"
	BtnRequests  = "📥 Requests"
	BtnCancel    = "❌ Cancel"
	BtnSkip      = "⏭ Skip"
	BtnNewGroup  = "➕ Create Group"
	BtnBack      = "⬅️ Back"
	BtnAIWrite   = "✨ Write with AI"
	BtnPublish   = "✅ Publish"
	BtnRegen     = "🔄 Regenerate"
	BtnShareQR   = "📷 Share QR"
	BtnRoster    = "👥 Roster"
	BtnAllLevels = "All levels"
	BtnAllTerr   = "All terrain"
)

const (
	MsgWelcome = "🏍 Welcome to <b>Apex Riders</b>, %s!\n\n" +
		"You have been added to the club's open group. Browse groups, join rides and earn XP to unlock faster levels."
	MsgWelcomeBack   = "👋 Welcome back, %s!"
	MsgNotRegistered = "Please send /start first."
	MsgGenericError  = "⚠️ Something went wrong, please try again."
	MsgCancelled     = "Cancelled."
	MsgRateLimited   = "⏳ Slow down a little. Try again in %d seconds."

	MsgProfile = "👤 <b>%s</b>\n\n" +
		"⭐ XP: <b>%d</b>\n" +
		"%s Unlocked up to level %s (%s)\n\n" +
		"🏍 Groups: %d\n" +
		"🗓 Rides joined: %d\n" +
		"⏳ Pending requests: %d"

	MsgHelp = "<b>How it works</b>\n\n" +
		"🏍 <b>Groups</b>: your clubs and the public ones you can join.\n" +
		"🔑 <b>Join by Code</b>: enter a private group's code.\n" +
		"🗓 <b>Rides</b>: rides of the group you have open. Filter them by level and terrain.\n" +
		"➕ <b>New Ride</b>: post a ride to the open group.\n\n" +
		"Each level needs a minimum XP. Without enough XP you can request entry and the group admin decides.\n\n" +
		"/groups /join /newgroup /rides /newride /requests /export /cancel\n\n" +
		"Group admins can send an .xlsx ride schedule while their group is open to import it."
	MsgHelpSuperAdmin = "\n\n<b>Owner</b>\n/award &lt;telegram_id&gt; &lt;points&gt;\n/stats"

	MsgDashboard       = "🏍 <b>Your Groups</b>\n%s\n\n🌍 <b>Browse Public Groups</b>\n%s"
	MsgNoYourGroups    = "<i>You have not joined any group yet.</i>"
	MsgNoPublicGroups  = "<i>No other public groups right now.</i>"
	MsgEnterJoinCode   = "🔑 Send the group's join code."
	MsgJoinedGroup     = "✅ You joined <b>%s</b>!"
	MsgAlreadyInGroup  = "You are already a member of <b>%s</b>."
	MsgGroupCreateName = "What's the name of your group?"
	MsgGroupCreateDesc = "Describe the group in a sentence or two."
	MsgGroupPrivacy    = "Should the group be public or private?\n\nPrivate groups can only be joined with their code."
	MsgGroupCreated    = "🎉 <b>%s</b> is live!\n\nJoin code: <code>%s</code>\nInvite link: %s"
	MsgGroupQRCaption  = "Scan to join %s"

	MsgNoActiveGroup  = "Open a group first from 🏍 Groups."
	MsgNoRides        = "<i>No rides match.</i>"
	MsgRidesHeader    = "🗓 <b>%s</b> rides"
	MsgFilterLine     = "Filter: %s • %s"
	MsgRequestToAdmin = "📥 <b>%s</b> (%d XP) asks to join <b>%s</b> (requires %d XP)."
	MsgRosterHeader   = "👥 <b>%s</b> roster (%d/%d)"
	MsgRosterEmpty    = "<i>Nobody yet.</i>"

	MsgRideTitle     = "🏁 Ride title?"
	MsgRideDate      = "📅 Date? (YYYY-MM-DD)"
	MsgRideTime      = "⏰ KSU time? (HH:MM)"
	MsgRideDistance  = "📏 Distance in miles? (default %s)"
	MsgRideElevation = "⛰ Elevation gain in feet? (default %d)"
	MsgRideLevel     = "🏷 Pick the ride level."
	MsgRideTerrain   = "🛣 Pick the terrain."
	MsgRideMax       = "👥 Max riders? (default %d)"
	MsgRideMarshall  = "🦺 Marshall's name? (optional)"
	MsgRideTail      = "🚨 Tail rider's name? (optional)"
	MsgRideDesc      = "📝 Describe the ride, or let AI write it."
	MsgRideTips      = "💡 Any tips for riders? (optional)"
	MsgRideAIWorking = "✨ Writing a description..."
	MsgRideAIBusy    = "✨ AI is already writing, hang on."
	MsgRideSummary   = "<b>Review your ride</b>\n\n%s"
	MsgRidePublished = "🎉 <b>%s</b> is published!"
	MsgInvalidNumber = "Please send a number."
	MsgInvalidDate   = "Date must look like 2024-05-30."
	MsgInvalidTime   = "KSU time must look like 07:30."
	MsgEmptyText     = "That can't be empty."

	MsgNoRequests      = "📥 No pending requests."
	MsgRequestsHeader  = "📥 <b>Pending requests</b>"
	MsgRequestApproved = "✅ Approved %s for %s."
	MsgRequestDeclined = "Declined %s for %s."
	MsgRiderApproved   = "🎉 Your request for <b>%s</b> was approved. See you at KSU!"
	MsgRiderDeclined   = "Your request for <b>%s</b> was declined."
	MsgAwardUsage      = "Usage: /award &lt;telegram_id&gt; &lt;points&gt;"
	MsgAwardDone       = "⭐ %s now has %d XP."
	MsgAwardReceived   = "⭐ You received %+d XP. Total: %d."
	MsgExportNoGroup   = "Open a group you admin, then send /export."
	MsgExportForbidden = "Only the group admin can export rides."
	MsgExportCaption   = "🗂 %s rides"
	MsgNotAuthorized   = "You are not allowed to do that."
	MsgImportWrongType = "Send the schedule as an .xlsx workbook."
	MsgImportDone      = "📥 Imported %d rides into <b>%s</b>."
	MsgImportNotMember = "Join this group before importing rides into it."
)

// GroupCard renders a group's header for the open-group view.
func GroupCard(g models.Group) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏍 <b>%s</b>\n", html.EscapeString(g.Name))
	if g.Description != "" {
		fmt.Fprintf(&sb, "%s\n", html.EscapeString(g.Description))
	}
	fmt.Fprintf(&sb, "\n👥 %d members • %s", g.MemberCount, g.Visibility())
	return sb.String()
}

// GroupLine is the one-line entry used in dashboard lists.
func GroupLine(g models.Group) string {
	lock := ""
	if g.IsPrivate {
		lock = " 🔒"
	}
	return fmt.Sprintf("• <b>%s</b>%s (%d)", html.EscapeString(g.Name), lock, g.MemberCount)
}

func dashboardText(d services.Dashboard) string {
	yours := MsgNoYourGroups
	if len(d.YourGroups) > 0 {
		lines := make([]string, 0, len(d.YourGroups))
		for _, g := range d.YourGroups {
			lines = append(lines, GroupLine(g))
		}
		yours = strings.Join(lines, "\n")
	}
	public := MsgNoPublicGroups
	if len(d.PublicGroups) > 0 {
		lines := make([]string, 0, len(d.PublicGroups))
		for _, g := range d.PublicGroups {
			lines = append(lines, GroupLine(g))
		}
		public = strings.Join(lines, "\n")
	}
	return fmt.Sprintf(MsgDashboard, yours, public)
}

func formatMiles(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// RideLine is a compact list entry.
func RideLine(r models.Ride) string {
	p := r.Level.Policy()
	return fmt.Sprintf("%s <b>%s</b>\n    📅 %s %s • %s mi • %d/%d",
		p.Badge, html.EscapeString(r.Title), r.Date, r.Time, formatMiles(r.Distance), r.CurrentRiders, r.MaxRiders)
}

// RideCard renders every field of a ride.
func RideCard(r models.Ride) string {
	p := r.Level.Policy()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>%s</b>\n\n", p.Badge, html.EscapeString(r.Title))
	when := r.Date
	if t, err := r.StartsAt(time.UTC); err == nil {
		when = t.Format("Mon " + models.RideDateLayout)
	}
	fmt.Fprintf(&sb, "📅 %s • KSU %s\n", when, r.Time)
	fmt.Fprintf(&sb, "📏 %s mi • ⛰ %d ft\n", formatMiles(r.Distance), r.Elevation)
	fmt.Fprintf(&sb, "🏷 Level %s %s (%s)\n", r.Level, p.Label, p.AvgSpeed)
	fmt.Fprintf(&sb, "%s %s\n", r.Terrain.Emoji(), r.Terrain)
	fmt.Fprintf(&sb, "👥 %d/%d riders", r.CurrentRiders, r.MaxRiders)
	if r.MinPoints > 0 {
		fmt.Fprintf(&sb, " • requires %d XP", r.MinPoints)
	}
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "🧭 Leader: %s\n", html.EscapeString(r.LeaderName))
	if r.MarshallName != "" {
		fmt.Fprintf(&sb, "🦺 Marshall: %s\n", html.EscapeString(r.MarshallName))
	}
	if r.TailName != "" {
		fmt.Fprintf(&sb, "🚨 Tail: %s\n", html.EscapeString(r.TailName))
	}
	if r.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", html.EscapeString(r.Description))
	}
	if r.Tips != "" {
		fmt.Fprintf(&sb, "\n💡 %s\n", html.EscapeString(r.Tips))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// rideCardWithOffer appends the hint of a request offer to the card.
func rideCardWithOffer(r models.Ride, offer rules.Offer) string {
	text := RideCard(r)
	if offer.Hint != "" {
		text += "\n\n🔒 " + offer.Hint
	}
	return text
}

func filterLabel(v services.ViewState) string {
	level := BtnAllLevels
	if v.LevelFilter != "" {
		level = "Level " + string(v.LevelFilter)
	}
	terrain := BtnAllTerr
	if v.TerrainFilter != "" {
		terrain = string(v.TerrainFilter)
	}
	return fmt.Sprintf(MsgFilterLine, level, terrain)
}
