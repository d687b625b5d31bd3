package telegram

import (
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const sendAttempts = 3

var sendRetryDelay = 500 * time.Millisecond

// sendWithRetry delivers a message with a few immediate attempts, waiting
// out Telegram flood-control hints between them. The last error is
// returned once the attempt budget is spent.
func sendWithRetry(logger *zap.Logger, send func() error) error {
	var err error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		if err = send(); err == nil {
			return nil
		}
		if attempt == sendAttempts {
			break
		}
		logger.Debug("send attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(retryDelay(err))
	}
	return err
}

func retryDelay(err error) time.Duration {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return sendRetryDelay
}
