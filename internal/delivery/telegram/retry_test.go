package telegram

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fastRetries(t *testing.T) {
	t.Helper()
	old := sendRetryDelay
	sendRetryDelay = time.Millisecond
	t.Cleanup(func() { sendRetryDelay = old })
}

func TestSendWithRetryRecoversFromTransientFailure(t *testing.T) {
	fastRetries(t)

	calls := 0
	err := sendWithRetry(zap.NewNop(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestSendWithRetryGivesUpAfterBudget(t *testing.T) {
	fastRetries(t)

	calls := 0
	err := sendWithRetry(zap.NewNop(), func() error {
		calls++
		return errors.New("chat not found")
	})

	require.Error(t, err)
	assert.Equal(t, sendAttempts, calls)
}

func TestSendWithRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := sendWithRetry(zap.NewNop(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDelayHonorsFloodWait(t *testing.T) {
	floodErr := &tgbotapi.Error{
		Code:               429,
		Message:            "Too Many Requests",
		ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 7},
	}
	assert.Equal(t, 7*time.Second, retryDelay(floodErr))
	assert.Equal(t, sendRetryDelay, retryDelay(errors.New("timeout")))
}
