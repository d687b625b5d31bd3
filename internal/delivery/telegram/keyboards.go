package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/howardstar/f1hub/internal/domain"
	"github.com/howardstar/f1hub/internal/usecase"
)

type tzOption struct {
	Label string
	Zone  string
}

// tzOptions covers whole-hour UTC offsets. The Etc/GMT zone names carry an
// inverted sign, per the tz database.
func tzOptions() []tzOption {
	options := make([]tzOption, 0, 24)
	for offset := -11; offset <= 12; offset++ {
		if offset == 0 {
			options = append(options, tzOption{Label: "UTC", Zone: "UTC"})
			continue
		}
		label := fmt.Sprintf("UTC%+d", offset)
		zone := fmt.Sprintf("Etc/GMT%+d", -offset)
		options = append(options, tzOption{Label: label, Zone: zone})
	}
	return options
}

func tzLabel(zone string) string {
	for _, option := range tzOptions() {
		if option.Zone == zone {
			return option.Label
		}
	}
	return zone
}

func leadLabel(minutes int) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%d min", minutes)
	case minutes%1440 == 0:
		return fmt.Sprintf("%d h", minutes/60)
	case minutes%60 == 0:
		return fmt.Sprintf("%d h", minutes/60)
	default:
		return fmt.Sprintf("%d min", minutes)
	}
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Favorites", "fav:menu"),
			tgbotapi.NewInlineKeyboardButtonData("Settings", "set:menu"),
		),
	)
}

func favoritesMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Drivers", "fav:drivers"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Teams", "fav:teams"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Close", "fav:close"),
		),
	)
}

func driversKeyboard(standings []domain.DriverStanding, favorites map[string]bool) tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(standings))
	for _, s := range standings {
		if s.Code == "" {
			continue
		}
		label := s.FullName()
		if favorites[s.Code] {
			label = "✅ " + label
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, "fav:toggle_driver:"+s.Code))
	}

	rows := pairRows(buttons)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Clear all", "fav:ask_clear_drivers"),
		tgbotapi.NewInlineKeyboardButtonData("Back", "fav:menu"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func teamsKeyboard(standings []domain.ConstructorStanding, favorites map[string]bool) tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(standings))
	for _, s := range standings {
		if s.Name == "" {
			continue
		}
		label := s.Name
		if favorites[s.Name] {
			label = "✅ " + label
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, "fav:toggle_team:"+s.Name))
	}

	rows := pairRows(buttons)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Clear all", "fav:ask_clear_teams"),
		tgbotapi.NewInlineKeyboardButtonData("Back", "fav:menu"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmClearKeyboard(confirmData, backData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, clear", confirmData),
			tgbotapi.NewInlineKeyboardButtonData("No, back", backData),
		),
	)
}

func settingsKeyboard(user *domain.User) tgbotapi.InlineKeyboardMarkup {
	status := "off"
	if user.NotificationsEnabled {
		status = "on"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Notifications: "+status, "set:toggle"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Remind before: "+leadLabel(user.NotifyLeadMinutes), "set:lead"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Timezone: "+tzLabel(user.Timezone), "set:tz"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Close", "set:close"),
		),
	)
}

func timezoneKeyboard() tgbotapi.InlineKeyboardMarkup {
	options := tzOptions()
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, option := range options {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(option.Label, "set:tz:"+option.Zone))
	}
	rows := pairRows(buttons)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Back", "set:menu"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func leadTimeKeyboard(current int) tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(usecase.LeadTimeOptions))
	for _, minutes := range usecase.LeadTimeOptions {
		label := leadLabel(minutes)
		if minutes == current {
			label = "✅ " + label
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("set:lead:%d", minutes)))
	}
	rows := pairRows(buttons)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Back", "set:menu"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func pairRows(buttons []tgbotapi.InlineKeyboardButton) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, (len(buttons)+1)/2)
	for i := 0; i < len(buttons); i += 2 {
		if i+1 < len(buttons) {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons[i], buttons[i+1]))
		} else {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons[i]))
		}
	}
	return rows
}
