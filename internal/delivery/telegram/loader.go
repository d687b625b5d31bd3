package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const loaderTick = 700 * time.Millisecond

// loader shows a progress message while a slow upstream call runs. The
// percentage creeps toward 99 and never reaches it; Stop deletes the
// message once the real reply is ready.
type loader struct {
	api       *tgbotapi.BotAPI
	logger    *zap.Logger
	chatID    int64
	messageID int
	done      chan struct{}
	stopped   chan struct{}
}

func startLoader(api *tgbotapi.BotAPI, logger *zap.Logger, chatID int64) *loader {
	l := &loader{
		api:     api,
		logger:  logger,
		chatID:  chatID,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	sent, err := api.Send(tgbotapi.NewMessage(chatID, "Loading... 0%"))
	if err != nil {
		logger.Debug("loader message failed", zap.Error(err))
		close(l.stopped)
		return l
	}
	l.messageID = sent.MessageID

	go l.run()
	return l
}

func (l *loader) run() {
	defer close(l.stopped)

	ticker := time.NewTicker(loaderTick)
	defer ticker.Stop()

	progress := 0
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			progress += (99 - progress) / 4
			edit := tgbotapi.NewEditMessageText(l.chatID, l.messageID, fmt.Sprintf("Loading... %d%%", progress))
			if _, err := l.api.Send(edit); err != nil {
				return
			}
		}
	}
}

func (l *loader) Stop() {
	select {
	case <-l.stopped:
	default:
		close(l.done)
		<-l.stopped
	}
	if l.messageID != 0 {
		if _, err := l.api.Request(tgbotapi.NewDeleteMessage(l.chatID, l.messageID)); err != nil {
			l.logger.Debug("loader cleanup failed", zap.Error(err))
		}
	}
}
