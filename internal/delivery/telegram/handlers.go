package telegram

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/howardstar/f1hub/internal/domain"
	"github.com/howardstar/f1hub/internal/usecase"
	"go.uber.org/zap"
)

const (
	pendingCompare  = "compare"
	pendingFeedback = "feedback"
)

type Handlers struct {
	userUC      *usecase.UserUsecase
	favoritesUC *usecase.FavoritesUsecase
	scheduleUC  *usecase.ScheduleUsecase
	standingsUC *usecase.StandingsUsecase
	resultsUC   *usecase.ResultsUsecase
	votesUC     *usecase.VotesUsecase
	groups      domain.GroupChatRepository
	adminIDs    []int64
	logger      *zap.Logger

	mu      sync.Mutex
	pending map[int64]string
}

func NewHandlers(
	userUC *usecase.UserUsecase,
	favoritesUC *usecase.FavoritesUsecase,
	scheduleUC *usecase.ScheduleUsecase,
	standingsUC *usecase.StandingsUsecase,
	resultsUC *usecase.ResultsUsecase,
	votesUC *usecase.VotesUsecase,
	groups domain.GroupChatRepository,
	adminIDs []int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userUC:      userUC,
		favoritesUC: favoritesUC,
		scheduleUC:  scheduleUC,
		standingsUC: standingsUC,
		resultsUC:   resultsUC,
		votesUC:     votesUC,
		groups:      groups,
		adminIDs:    adminIDs,
		logger:      logger,
		pending:     make(map[int64]string),
	}
}

func (h *Handlers) HandleUpdate(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			h.logger.Error("panic while handling update",
				zap.Any("panic", r),
				zap.ByteString("stack", stack),
			)
			if chatID := updateChatID(update); chatID != 0 {
				h.reply(api, chatID, "Something went wrong. Please try again.")
			}
			h.notifyAdmins(api, truncate(fmt.Sprintf("panic: %v\n%s", r, stack), 3500))
		}
	}()

	switch {
	case update.MyChatMember != nil:
		h.handleChatMember(ctx, update.MyChatMember)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, api, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		h.handleMessage(ctx, api, update.Message)
	}
}

func (h *Handlers) handleChatMember(ctx context.Context, member *tgbotapi.ChatMemberUpdated) {
	if !member.Chat.IsGroup() && !member.Chat.IsSuperGroup() {
		return
	}
	switch member.NewChatMember.Status {
	case "member", "administrator":
		if err := h.groups.Add(ctx, member.Chat.ID, member.Chat.Title); err != nil {
			h.logger.Warn("failed to register group", zap.Int64("chat_id", member.Chat.ID), zap.Error(err))
			return
		}
		h.logger.Info("joined group", zap.Int64("chat_id", member.Chat.ID), zap.String("title", member.Chat.Title))
	case "left", "kicked":
		if err := h.groups.Remove(ctx, member.Chat.ID); err != nil {
			h.logger.Warn("failed to remove group", zap.Int64("chat_id", member.Chat.ID), zap.Error(err))
			return
		}
		h.logger.Info("left group", zap.Int64("chat_id", member.Chat.ID))
	}
}

func (h *Handlers) handleMessage(ctx context.Context, api *tgbotapi.BotAPI, message *tgbotapi.Message) {
	if message.Chat.IsGroup() || message.Chat.IsSuperGroup() {
		h.handleGroupMessage(ctx, api, message)
		return
	}

	if message.IsCommand() {
		h.clearPending(message.From.ID)
		h.handleCommand(ctx, api, message)
		return
	}
	h.handlePendingText(ctx, api, message)
}

func (h *Handlers) handleGroupMessage(ctx context.Context, api *tgbotapi.BotAPI, message *tgbotapi.Message) {
	// Seeing any traffic in a group confirms membership even when the
	// my_chat_member update was missed.
	if err := h.groups.Add(ctx, message.Chat.ID, message.Chat.Title); err != nil {
		h.logger.Warn("failed to register group", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
	}

	if !message.IsCommand() || message.Command() != "f1" {
		return
	}

	season := h.scheduleUC.CurrentSeason()
	race, err := h.scheduleUC.NextRace(ctx, season)
	if err != nil {
		h.reply(api, message.Chat.ID, h.errorMessage(err))
		return
	}
	sessions, err := h.scheduleUC.Weekend(ctx, race.Season, race.Round)
	if err != nil {
		sessions = nil
	}
	h.reply(api, message.Chat.ID, formatNextRace(race, sessions, time.UTC))
}

func (h *Handlers) handleCommand(ctx context.Context, api *tgbotapi.BotAPI, message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()
	chatID := message.Chat.ID
	userID := message.From.ID
	username := message.From.UserName

	h.logger.Info(
		"telegram command received",
		zap.Int64("chat_id", chatID),
		zap.Int64("telegram_user_id", userID),
		zap.String("username", username),
		zap.String("command", command),
		zap.String("args", args),
	)

	switch command {
	case "start":
		_, err := h.userUC.StartOrGetUser(ctx, userID, username)
		if err != nil {
			h.logger.Warn("start command failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(api, chatID, "Failed to register. Please try again.")
			return
		}
		h.reply(api, chatID, "Welcome to F1 Hub.\n\n"+HelpText)
	case "help":
		h.reply(api, chatID, HelpText)
	case "menu":
		msg := tgbotapi.NewMessage(chatID, "What would you like to open?")
		msg.ReplyMarkup = mainMenuKeyboard()
		h.send(api, msg)
	case "races":
		h.handleRaces(ctx, api, chatID, userID)
	case "next_race":
		h.handleNextRace(ctx, api, chatID, userID)
	case "drivers":
		h.handleDrivers(ctx, api, chatID)
	case "teams":
		h.handleTeams(ctx, api, chatID)
	case "quali":
		h.handleQuali(ctx, api, chatID, args)
	case "results":
		h.handleResults(ctx, api, chatID, args)
	case "favorites":
		drivers, teams, err := h.favoritesUC.List(ctx, userID)
		if err != nil {
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		msg := tgbotapi.NewMessage(chatID, formatFavorites(drivers, teams))
		msg.ReplyMarkup = favoritesMenuKeyboard()
		h.send(api, msg)
	case "settings":
		user, err := h.userUC.GetSettings(ctx, userID)
		if err != nil {
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		msg := tgbotapi.NewMessage(chatID, "Settings")
		msg.ReplyMarkup = settingsKeyboard(user)
		h.send(api, msg)
	case "compare":
		if strings.TrimSpace(args) == "" {
			h.setPending(userID, pendingCompare)
			h.reply(api, chatID, "Send two driver codes, e.g. VER HAM")
			return
		}
		h.handleCompare(ctx, api, chatID, args)
	case "feedback":
		h.setPending(userID, pendingFeedback)
		h.reply(api, chatID, "Send your feedback as a single message.")
	case "my_results":
		h.handleMyResults(ctx, api, chatID, userID)
	default:
		h.logger.Warn("unknown command", zap.Int64("telegram_user_id", userID), zap.String("command", command))
		h.reply(api, chatID, "Unknown command.\n\n"+HelpText)
	}
}

func (h *Handlers) handlePendingText(ctx context.Context, api *tgbotapi.BotAPI, message *tgbotapi.Message) {
	userID := message.From.ID
	state := h.takePending(userID)
	if state == "" {
		return
	}

	switch state {
	case pendingCompare:
		h.handleCompare(ctx, api, message.Chat.ID, message.Text)
	case pendingFeedback:
		text := strings.TrimSpace(message.Text)
		if text == "" {
			h.reply(api, message.Chat.ID, "Feedback message was empty, nothing sent.")
			return
		}
		h.notifyAdmins(api, fmt.Sprintf("Feedback from @%s (%d):\n%s", message.From.UserName, userID, truncate(text, 3500)))
		h.reply(api, message.Chat.ID, "Thanks, your feedback has been passed on.")
	}
}

func (h *Handlers) handleRaces(ctx context.Context, api *tgbotapi.BotAPI, chatID, userID int64) {
	l := startLoader(api, h.logger, chatID)
	defer l.Stop()

	season := h.scheduleUC.CurrentSeason()
	races, err := h.scheduleUC.Season(ctx, season)
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}
	h.reply(api, chatID, formatSeasonSchedule(season, races, h.userLocation(ctx, userID)))
}

func (h *Handlers) handleNextRace(ctx context.Context, api *tgbotapi.BotAPI, chatID, userID int64) {
	l := startLoader(api, h.logger, chatID)
	defer l.Stop()

	season := h.scheduleUC.CurrentSeason()
	race, err := h.scheduleUC.NextRace(ctx, season)
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}
	sessions, err := h.scheduleUC.Weekend(ctx, race.Season, race.Round)
	if err != nil {
		sessions = nil
	}
	h.reply(api, chatID, formatNextRace(race, sessions, h.userLocation(ctx, userID)))
}

func (h *Handlers) handleDrivers(ctx context.Context, api *tgbotapi.BotAPI, chatID int64) {
	l := startLoader(api, h.logger, chatID)
	defer l.Stop()

	standings, season, err := h.standingsUC.DriversWithFallback(ctx, h.scheduleUC.CurrentSeason())
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}
	h.reply(api, chatID, formatDriverStandings(season, standings))
}

func (h *Handlers) handleTeams(ctx context.Context, api *tgbotapi.BotAPI, chatID int64) {
	l := startLoader(api, h.logger, chatID)
	defer l.Stop()

	standings, season, err := h.standingsUC.ConstructorsWithFallback(ctx, h.scheduleUC.CurrentSeason())
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}
	h.reply(api, chatID, formatConstructorStandings(season, standings))
}

func (h *Handlers) handleQuali(ctx context.Context, api *tgbotapi.BotAPI, chatID int64, args string) {
	round, err := ParseRoundArg(args)
	if err != nil {
		h.reply(api, chatID, "Usage: /quali [round]")
		return
	}

	l := startLoader(api, h.logger, chatID)
	defer l.Stop()

	season := h.scheduleUC.CurrentSeason()
	var results []domain.QualiResult
	if round == 0 {
		round, results, err = h.resultsUC.LatestQualifying(ctx, season)
	} else {
		results, err = h.resultsUC.Qualifying(ctx, season, round)
	}
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}
	h.reply(api, chatID, formatQualiResults(season, round, results))
}

func (h *Handlers) handleResults(ctx context.Context, api *tgbotapi.BotAPI, chatID int64, args string) {
	round, err := ParseRoundArg(args)
	if err != nil {
		h.reply(api, chatID, "Usage: /results [round]")
		return
	}

	l := startLoader(api, h.logger, chatID)
	defer l.Stop()

	season := h.scheduleUC.CurrentSeason()
	round, results, err := h.resultsUC.Race(ctx, season, round)
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}
	h.reply(api, chatID, formatRaceResults(season, round, results))
}

func (h *Handlers) handleCompare(ctx context.Context, api *tgbotapi.BotAPI, chatID int64, args string) {
	first, second, err := ParseCompareArgs(args)
	if err != nil {
		h.reply(api, chatID, "Usage: /compare <CODE> <CODE>, e.g. /compare VER HAM")
		return
	}

	l := startLoader(api, h.logger, chatID)
	defer l.Stop()

	comparison, err := h.standingsUC.Compare(ctx, h.scheduleUC.CurrentSeason(), first, second)
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}
	h.reply(api, chatID, formatComparison(comparison))
}

func (h *Handlers) handleMyResults(ctx context.Context, api *tgbotapi.BotAPI, chatID, userID int64) {
	season := h.scheduleUC.CurrentSeason()
	race, err := h.scheduleUC.LatestStartedRace(ctx, season, 0)
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Driver of the day, %s (round %d)\n", race.Name, race.Round)

	vote, err := h.votesUC.UserVote(ctx, userID, season, race.Round)
	switch {
	case err == nil:
		fmt.Fprintf(&builder, "Your vote: %s\n", vote.DriverCode)
	case errors.Is(err, domain.ErrNotFound):
		builder.WriteString("You have not voted for this round.\n")
	default:
		h.reply(api, chatID, h.errorMessage(err))
		return
	}

	counts, err := h.votesUC.Tally(ctx, season, race.Round)
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}
	if len(counts) == 0 {
		builder.WriteString("No votes yet.")
	} else {
		builder.WriteString("\nStandings:\n")
		for _, count := range counts {
			fmt.Fprintf(&builder, "%s: %d\n", count.DriverCode, count.Votes)
		}
	}
	h.reply(api, chatID, builder.String())
}

func (h *Handlers) handleCallback(ctx context.Context, api *tgbotapi.BotAPI, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.From == nil {
		return
	}
	defer func() {
		if _, err := api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			h.logger.Debug("callback ack failed", zap.Error(err))
		}
	}()

	data := query.Data
	switch {
	case strings.HasPrefix(data, "fav:"):
		h.handleFavoritesCallback(ctx, api, query, strings.TrimPrefix(data, "fav:"))
	case strings.HasPrefix(data, "set:"):
		h.handleSettingsCallback(ctx, api, query, strings.TrimPrefix(data, "set:"))
	}
}

func (h *Handlers) handleFavoritesCallback(ctx context.Context, api *tgbotapi.BotAPI, query *tgbotapi.CallbackQuery, action string) {
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	userID := query.From.ID

	renderError := func(err error) {
		h.edit(api, chatID, messageID, h.errorMessage(err), nil)
	}

	switch {
	case action == "menu":
		drivers, teams, err := h.favoritesUC.List(ctx, userID)
		if err != nil {
			renderError(err)
			return
		}
		keyboard := favoritesMenuKeyboard()
		h.edit(api, chatID, messageID, formatFavorites(drivers, teams), &keyboard)
	case action == "drivers", strings.HasPrefix(action, "toggle_driver:"), action == "clear_drivers":
		if code := strings.TrimPrefix(action, "toggle_driver:"); code != action {
			if _, err := h.favoritesUC.ToggleDriver(ctx, userID, code); err != nil {
				renderError(err)
				return
			}
		}
		if action == "clear_drivers" {
			if err := h.favoritesUC.ClearDrivers(ctx, userID); err != nil {
				renderError(err)
				return
			}
		}
		h.renderDriverPicker(ctx, api, chatID, messageID, userID)
	case action == "teams", strings.HasPrefix(action, "toggle_team:"), action == "clear_teams":
		if name := strings.TrimPrefix(action, "toggle_team:"); name != action {
			if _, err := h.favoritesUC.ToggleTeam(ctx, userID, name); err != nil {
				renderError(err)
				return
			}
		}
		if action == "clear_teams" {
			if err := h.favoritesUC.ClearTeams(ctx, userID); err != nil {
				renderError(err)
				return
			}
		}
		h.renderTeamPicker(ctx, api, chatID, messageID, userID)
	case action == "ask_clear_drivers":
		keyboard := confirmClearKeyboard("fav:clear_drivers", "fav:drivers")
		h.edit(api, chatID, messageID, "Remove all favorite drivers?", &keyboard)
	case action == "ask_clear_teams":
		keyboard := confirmClearKeyboard("fav:clear_teams", "fav:teams")
		h.edit(api, chatID, messageID, "Remove all favorite teams?", &keyboard)
	case action == "close":
		h.deleteMessage(api, chatID, messageID)
	}
}

func (h *Handlers) renderDriverPicker(ctx context.Context, api *tgbotapi.BotAPI, chatID int64, messageID int, userID int64) {
	standings, _, err := h.standingsUC.DriversWithFallback(ctx, h.scheduleUC.CurrentSeason())
	if err != nil {
		h.edit(api, chatID, messageID, h.errorMessage(err), nil)
		return
	}
	drivers, _, err := h.favoritesUC.List(ctx, userID)
	if err != nil {
		h.edit(api, chatID, messageID, h.errorMessage(err), nil)
		return
	}
	keyboard := driversKeyboard(standings, toSet(drivers))
	h.edit(api, chatID, messageID, "Tap a driver to follow or unfollow:", &keyboard)
}

func (h *Handlers) renderTeamPicker(ctx context.Context, api *tgbotapi.BotAPI, chatID int64, messageID int, userID int64) {
	standings, _, err := h.standingsUC.ConstructorsWithFallback(ctx, h.scheduleUC.CurrentSeason())
	if err != nil {
		h.edit(api, chatID, messageID, h.errorMessage(err), nil)
		return
	}
	_, teams, err := h.favoritesUC.List(ctx, userID)
	if err != nil {
		h.edit(api, chatID, messageID, h.errorMessage(err), nil)
		return
	}
	keyboard := teamsKeyboard(standings, toSet(teams))
	h.edit(api, chatID, messageID, "Tap a team to follow or unfollow:", &keyboard)
}

func (h *Handlers) handleSettingsCallback(ctx context.Context, api *tgbotapi.BotAPI, query *tgbotapi.CallbackQuery, action string) {
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	userID := query.From.ID

	renderMenu := func() {
		user, err := h.userUC.GetSettings(ctx, userID)
		if err != nil {
			h.edit(api, chatID, messageID, h.errorMessage(err), nil)
			return
		}
		keyboard := settingsKeyboard(user)
		h.edit(api, chatID, messageID, "Settings", &keyboard)
	}

	switch {
	case action == "menu":
		renderMenu()
	case action == "toggle":
		if _, err := h.userUC.ToggleNotifications(ctx, userID); err != nil {
			h.edit(api, chatID, messageID, h.errorMessage(err), nil)
			return
		}
		renderMenu()
	case action == "lead":
		user, err := h.userUC.GetSettings(ctx, userID)
		if err != nil {
			h.edit(api, chatID, messageID, h.errorMessage(err), nil)
			return
		}
		keyboard := leadTimeKeyboard(user.NotifyLeadMinutes)
		h.edit(api, chatID, messageID, "Remind me before the race:", &keyboard)
	case strings.HasPrefix(action, "lead:"):
		minutes, err := strconv.Atoi(strings.TrimPrefix(action, "lead:"))
		if err != nil {
			return
		}
		if err := h.userUC.SetNotifyLead(ctx, userID, minutes); err != nil {
			h.edit(api, chatID, messageID, h.errorMessage(err), nil)
			return
		}
		renderMenu()
	case action == "tz":
		keyboard := timezoneKeyboard()
		h.edit(api, chatID, messageID, "Pick your timezone:", &keyboard)
	case strings.HasPrefix(action, "tz:"):
		if err := h.userUC.SetTimezone(ctx, userID, strings.TrimPrefix(action, "tz:")); err != nil {
			h.edit(api, chatID, messageID, h.errorMessage(err), nil)
			return
		}
		renderMenu()
	case action == "close":
		h.deleteMessage(api, chatID, messageID)
	}
}

func (h *Handlers) userLocation(ctx context.Context, telegramID int64) *time.Location {
	user, err := h.userUC.GetSettings(ctx, telegramID)
	if err != nil {
		return time.UTC
	}
	return user.Location()
}

func (h *Handlers) setPending(userID int64, state string) {
	h.mu.Lock()
	h.pending[userID] = state
	h.mu.Unlock()
}

func (h *Handlers) clearPending(userID int64) {
	h.mu.Lock()
	delete(h.pending, userID)
	h.mu.Unlock()
}

func (h *Handlers) takePending(userID int64) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	state := h.pending[userID]
	delete(h.pending, userID)
	return state
}

func (h *Handlers) errorMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrUserNotRegistered):
		return "Please /start to register first."
	case errors.Is(err, usecase.ErrRoundNotFound):
		return "No race found for that. The season may be over."
	case errors.Is(err, usecase.ErrResultsNotReady):
		return "Results are not published yet. Try again later."
	case errors.Is(err, usecase.ErrDriverNotFound):
		return "Driver not found in the current standings."
	case errors.Is(err, usecase.ErrInvalidTimezone):
		return "Unknown timezone."
	case errors.Is(err, usecase.ErrInvalidLeadTime):
		return "Unsupported reminder lead time."
	}

	h.logger.Warn("unhandled error", zap.Error(err))
	return "Something went wrong. Please try again."
}

func (h *Handlers) reply(api *tgbotapi.BotAPI, chatID int64, text string) {
	h.send(api, tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(api *tgbotapi.BotAPI, msg tgbotapi.MessageConfig) {
	err := sendWithRetry(h.logger, func() error {
		_, err := api.Send(msg)
		return err
	})
	if err != nil {
		h.logger.Warn("failed to send message", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

func (h *Handlers) edit(api *tgbotapi.BotAPI, chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = keyboard
	if _, err := api.Send(edit); err != nil {
		h.logger.Warn("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handlers) deleteMessage(api *tgbotapi.BotAPI, chatID int64, messageID int) {
	if _, err := api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		h.logger.Debug("failed to delete message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handlers) notifyAdmins(api *tgbotapi.BotAPI, text string) {
	for _, adminID := range h.adminIDs {
		if _, err := api.Send(tgbotapi.NewMessage(adminID, text)); err != nil {
			h.logger.Warn("failed to notify admin", zap.Int64("admin_id", adminID), zap.Error(err))
		}
	}
}

func updateChatID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
