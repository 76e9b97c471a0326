package telegram

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/apex_bot/internal/config"
	"github.com/mroshb/apex_bot/internal/handlers"
	"github.com/mroshb/apex_bot/internal/middleware"
	"github.com/mroshb/apex_bot/pkg/logger"
)

const (
	workerCount     = 10
	workerQueueSize = 100

	// maxUploadBytes caps schedule workbooks fetched from Telegram.
	maxUploadBytes = 5 << 20
)

// job is one unit of per-user work: an update from Telegram or a closure
// queued by RunForUser.
type job struct {
	update *tgbotapi.Update
	fn     func()
}

type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	handlers *handlers.HandlerManager
	limiter  *middleware.RateLimiter

	// User sessions for conversation state
	sessions map[int64]*handlers.UserSession
	mu       sync.RWMutex

	// Worker pool, hashed by user so each user's jobs run in order
	workerChans []chan job
}

func InitBot(cfg *config.Config, h *handlers.HandlerManager, limiter *middleware.RateLimiter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	bot := newBot(api, cfg, h, limiter)

	if _, err := api.Request(tgbotapi.NewSetMyCommands(commandList()...)); err != nil {
		logger.Warn("Failed to register bot commands", "error", err)
	}

	// Start workers
	for _, ch := range bot.workerChans {
		go bot.startWorker(ch)
	}

	// Start update listener
	go bot.startUpdateListener()

	return bot, nil
}

func newBot(api *tgbotapi.BotAPI, cfg *config.Config, h *handlers.HandlerManager, limiter *middleware.RateLimiter) *Bot {
	b := &Bot{
		api:         api,
		config:      cfg,
		handlers:    h,
		limiter:     limiter,
		sessions:    make(map[int64]*handlers.UserSession),
		workerChans: make([]chan job, workerCount),
	}
	for i := range b.workerChans {
		b.workerChans[i] = make(chan job, workerQueueSize)
	}
	return b
}

func (b *Bot) startUpdateListener() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			update := update
			userID := updateUserID(update)
			if userID == 0 {
				// Not tied to a user (channel posts and the like)
				continue
			}
			b.dispatch(userID, job{update: &update})
		}

		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		time.Sleep(5 * time.Second)
	}
}

// updateUserID returns the Telegram user an update belongs to, or 0.
func updateUserID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}

func workerIndex(userID int64, workers int) int {
	idx := userID % int64(workers)
	if idx < 0 {
		idx = -idx
	}
	return int(idx)
}

// Hashed dispatch to workers to ensure per-user ordered processing
func (b *Bot) dispatch(userID int64, j job) {
	b.workerChans[workerIndex(userID, len(b.workerChans))] <- j
}

// RunForUser queues fn on the user's worker, behind their pending updates.
func (b *Bot) RunForUser(userID int64, fn func()) {
	b.dispatch(userID, job{fn: fn})
}

func (b *Bot) startWorker(ch chan job) {
	for j := range ch {
		b.runJob(j)
	}
}

func (b *Bot) runJob(j job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in worker", "error", r)
		}
	}()

	if j.fn != nil {
		j.fn()
		return
	}
	b.handleUpdate(*j.update)
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	userID := updateUserID(update)
	if b.limiter != nil && !b.limiter.Allow(userID) {
		b.rejectRateLimited(userID, update)
		return
	}

	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

func (b *Bot) rejectRateLimited(userID int64, update tgbotapi.Update) {
	wait := int(math.Ceil(b.limiter.RetryAfter(userID).Seconds()))
	logger.Warn("Rate limit exceeded", "user_id", userID)
	if update.CallbackQuery != nil {
		b.AnswerCallbackQuery(update.CallbackQuery.ID, fmt.Sprintf(handlers.MsgRateLimited, wait), true)
		return
	}
	// Only the first rejected message in a burst gets a reply.
	if !b.recentlyWarned(userID) {
		b.sendMessage(userID, fmt.Sprintf(handlers.MsgRateLimited, wait), nil)
	}
}

func (b *Bot) recentlyWarned(userID int64) bool {
	session := b.getSession(userID)
	last, _ := session.Data["rate_warned_at"].(time.Time)
	if time.Since(last) < time.Minute {
		return true
	}
	session.Data["rate_warned_at"] = time.Now()
	return false
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	userID := message.From.ID

	logger.Debug("Received message",
		"user_id", userID,
		"text", message.Text,
		"has_document", message.Document != nil,
	)

	session := b.getSession(userID)

	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	if message.Document != nil {
		b.handleDocument(message)
		return
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	if b.handleButtonPress(userID, text) {
		return
	}

	switch {
	case session.State == handlers.StateJoinCode:
		b.handlers.HandleJoinCodeInput(userID, text, session, b)
	case strings.HasPrefix(session.State, "group_"):
		b.handlers.HandleGroupCreationInput(userID, text, session, b)
	case strings.HasPrefix(session.State, "ride_"):
		b.handlers.HandleRideWizardInput(userID, text, session, b)
	default:
		b.handlers.HandleFreeText(userID, text, b)
	}
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	userID := message.From.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		// Always clear session on start to prevent stuck states
		b.clearSession(userID)
		b.handlers.HandleStart(userID, displayName(message.From), args, b)

	case "help":
		b.handlers.ShowHelp(userID, b)

	case "cancel":
		b.cancel(userID)

	case "groups":
		b.clearSession(userID)
		b.handlers.ShowDashboard(userID, 0, b)

	case "join":
		if args != "" {
			b.clearSession(userID)
			b.handlers.HandleJoinCode(userID, args, b)
		} else {
			b.handlers.StartJoinByCode(userID, b.getSession(userID), b)
		}

	case "newgroup":
		b.handlers.StartGroupCreation(userID, b.getSession(userID), b)

	case "rides":
		b.clearSession(userID)
		b.handlers.ShowRides(userID, 0, b)

	case "newride":
		b.handlers.StartRideWizard(userID, b.getSession(userID), b)

	case "requests":
		b.handlers.ShowPendingRequests(userID, b)

	case "award":
		b.handlers.HandleAward(userID, args, b)

	case "stats":
		b.handlers.HandleAdminStats(userID, b)

	case "export":
		b.handlers.HandleExport(userID, b)

	case "profile":
		b.handlers.ShowProfile(userID, b)
	}
}

// handleButtonPress routes main menu buttons. They work from any state and
// abandon the flow in progress.
func (b *Bot) handleButtonPress(userID int64, text string) bool {
	switch text {
	case handlers.BtnCancel:
		b.cancel(userID)
	case handlers.BtnGroups:
		b.clearSession(userID)
		b.handlers.ShowDashboard(userID, 0, b)
	case handlers.BtnRides:
		b.clearSession(userID)
		b.handlers.ShowRides(userID, 0, b)
	case handlers.BtnNewRide:
		b.handlers.StartRideWizard(userID, b.getSession(userID), b)
	case handlers.BtnJoinCode:
		b.handlers.StartJoinByCode(userID, b.getSession(userID), b)
	case handlers.BtnProfile:
		b.clearSession(userID)
		b.handlers.ShowProfile(userID, b)
	case handlers.BtnHelp:
		b.clearSession(userID)
		b.handlers.ShowHelp(userID, b)
	case handlers.BtnRequests:
		b.clearSession(userID)
		b.handlers.ShowPendingRequests(userID, b)
	default:
		return false
	}
	return true
}

func (b *Bot) cancel(userID int64) {
	b.clearSession(userID)
	b.handlers.Cancel(userID, b)
}

// handleDocument treats an uploaded workbook as a ride schedule import.
func (b *Bot) handleDocument(message *tgbotapi.Message) {
	userID := message.From.ID
	doc := message.Document
	if doc.FileSize > maxUploadBytes {
		b.sendMessage(userID, "❌ That file is too large.", nil)
		return
	}

	data, err := b.downloadFile(doc.FileID)
	if err != nil {
		logger.Error("Failed to download document", "user_id", userID, "error", err)
		b.sendMessage(userID, handlers.MsgGenericError, nil)
		return
	}
	b.handlers.HandleScheduleUpload(userID, doc.FileName, data, b)
}

func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.api.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes))
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}

func (b *Bot) getSession(userID int64) *handlers.UserSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	if session, exists := b.sessions[userID]; exists {
		return session
	}

	session := &handlers.UserSession{
		State: handlers.StateNone,
		Data:  make(map[string]interface{}),
	}
	b.sessions[userID] = session
	return session
}

// Session returns the user's live session, creating it if needed.
func (b *Bot) Session(userID int64) *handlers.UserSession {
	return b.getSession(userID)
}

func (b *Bot) clearSession(userID int64) {
	b.getSession(userID).Reset()
}

func (b *Bot) Username() string {
	if b.api == nil {
		return ""
	}
	return b.api.Self.UserName
}

func (b *Bot) sendMessage(chatID int64, text string, keyboard interface{}) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	switch kb := keyboard.(type) {
	case tgbotapi.ReplyKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.InlineKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.ReplyKeyboardRemove:
		msg.ReplyMarkup = kb
	}

	return b.sendWithRetry(msg, chatID, "message")
}

// sendWithRetry retries network failures with a linear backoff.
func (b *Bot) sendWithRetry(c tgbotapi.Chattable, chatID int64, kind string) int {
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		sentMsg, err := b.api.Send(c)
		if err != nil {
			logger.Error("Failed to send "+kind, "error", err, "chat_id", chatID, "attempt", i+1)

			// If it's a network error, wait and retry
			if isNetworkError(err) {
				time.Sleep(time.Duration(i+1) * time.Second)
				continue
			}
			return 0 // Non-network error, don't retry
		}
		return sentMsg.MessageID // Success
	}
	return 0 // All retries failed
}

func isNetworkError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "connection reset") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "network is unreachable")
}

func (b *Bot) SendMessage(chatID int64, text string, keyboard interface{}) int {
	return b.sendMessage(chatID, text, keyboard)
}

func (b *Bot) EditMessage(chatID int64, messageID int, text string, keyboard interface{}) {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if keyboard != nil {
		if kb, ok := keyboard.(tgbotapi.InlineKeyboardMarkup); ok {
			msg.ReplyMarkup = &kb
		}
	}

	if _, err := b.api.Send(msg); err != nil {
		// Telegram rejects edits that change nothing; that is harmless.
		if strings.Contains(err.Error(), "message is not modified") {
			return
		}
		logger.Error("Failed to edit message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
}

func (b *Bot) SendPhotoBytes(chatID int64, name string, data []byte, caption string) int {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	return b.sendWithRetry(photo, chatID, "photo")
}

func (b *Bot) SendDocument(chatID int64, name string, data []byte, caption string) int {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeHTML
	return b.sendWithRetry(doc, chatID, "document")
}

func (b *Bot) AnswerCallbackQuery(queryID string, text string, showAlert bool) {
	callback := tgbotapi.NewCallback(queryID, text)
	callback.ShowAlert = showAlert
	if _, err := b.api.Request(callback); err != nil {
		logger.Error("Failed to answer callback query", "error", err, "query_id", queryID)
	}
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	logger.Info("Bot stopped receiving updates")
}
