package db

import "time"

type userModel struct {
	ID                   uint   `gorm:"primaryKey"`
	TelegramID           int64  `gorm:"uniqueIndex;not null"`
	Username             string `gorm:""`
	Timezone             string `gorm:"not null;default:UTC"`
	NotifyLeadMinutes    int    `gorm:"not null;default:60"`
	NotificationsEnabled bool   `gorm:"not null;default:true"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (userModel) TableName() string { return "users" }

type favoriteDriverModel struct {
	UserID     uint   `gorm:"primaryKey;autoIncrement:false"`
	DriverCode string `gorm:"primaryKey"`
	CreatedAt  time.Time

	User userModel `gorm:"constraint:OnDelete:CASCADE"`
}

func (favoriteDriverModel) TableName() string { return "favorite_drivers" }

type favoriteTeamModel struct {
	UserID          uint   `gorm:"primaryKey;autoIncrement:false"`
	ConstructorName string `gorm:"primaryKey"`
	CreatedAt       time.Time

	User userModel `gorm:"constraint:OnDelete:CASCADE"`
}

func (favoriteTeamModel) TableName() string { return "favorite_teams" }

type notificationStateModel struct {
	Season                 int `gorm:"primaryKey;autoIncrement:false"`
	LastRemindedRound      int `gorm:"not null;default:0"`
	LastNotifiedRound      int `gorm:"not null;default:0"`
	LastNotifiedQualiRound int `gorm:"not null;default:0"`
	UpdatedAt              time.Time
}

func (notificationStateModel) TableName() string { return "notification_state" }

type raceReminderModel struct {
	Season    int  `gorm:"primaryKey;autoIncrement:false"`
	Round     int  `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

func (raceReminderModel) TableName() string { return "race_reminders" }

type voteModel struct {
	UserID     uint   `gorm:"primaryKey;autoIncrement:false"`
	Season     int    `gorm:"primaryKey;autoIncrement:false"`
	Round      int    `gorm:"primaryKey;autoIncrement:false"`
	DriverCode string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	User userModel `gorm:"constraint:OnDelete:CASCADE"`
}

func (voteModel) TableName() string { return "votes" }

type groupChatModel struct {
	ChatID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Title     string `gorm:""`
	CreatedAt time.Time
}

func (groupChatModel) TableName() string { return "group_chats" }
