package webapi

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "12345:TEST-TOKEN"

func signedInitData(t *testing.T, userJSON string) string {
	t.Helper()
	values := url.Values{}
	values.Set("user", userJSON)
	values.Set("auth_date", "1756166400")
	values.Set("query_id", "AAF0eXN0")
	return SignInitData(values, testBotToken)
}

func TestValidateInitData(t *testing.T) {
	initData := signedInitData(t, `{"id":42,"first_name":"Lena","username":"lena"}`)

	telegramID, err := ValidateInitData(initData, testBotToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), telegramID)
}

func TestValidateInitDataRejectsTampering(t *testing.T) {
	initData := signedInitData(t, `{"id":42,"username":"lena"}`)
	tampered := strings.Replace(initData, "%22id%22%3A42", "%22id%22%3A43", 1)
	require.NotEqual(t, initData, tampered)

	_, err := ValidateInitData(tampered, testBotToken)
	assert.ErrorIs(t, err, ErrInvalidInitData)
}

func TestValidateInitDataRejectsWrongToken(t *testing.T) {
	initData := signedInitData(t, `{"id":42}`)

	_, err := ValidateInitData(initData, "999:OTHER-TOKEN")
	assert.ErrorIs(t, err, ErrInvalidInitData)
}

func TestValidateInitDataRejectsMissingHash(t *testing.T) {
	_, err := ValidateInitData("user=%7B%22id%22%3A42%7D&auth_date=1756166400", testBotToken)
	assert.ErrorIs(t, err, ErrInvalidInitData)
}

func TestValidateInitDataRejectsMissingUser(t *testing.T) {
	values := url.Values{}
	values.Set("auth_date", "1756166400")
	initData := SignInitData(values, testBotToken)

	_, err := ValidateInitData(initData, testBotToken)
	assert.ErrorIs(t, err, ErrInvalidInitData)
}
