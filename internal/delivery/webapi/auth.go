package webapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"
)

var ErrInvalidInitData = errors.New("invalid init data")

// InitDataHeader carries the Telegram mini-app init data on API requests.
const InitDataHeader = "X-Telegram-Init-Data"

type initDataUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// ValidateInitData verifies the mini-app init data signature against the bot
// token and returns the authenticated Telegram user ID. The data-check string
// is every key=value pair except hash, sorted, joined with newlines; the
// signing key is HMAC-SHA256("WebAppData", botToken).
func ValidateInitData(initData, botToken string) (int64, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, ErrInvalidInitData
	}
	gotHash := values.Get("hash")
	if gotHash == "" {
		return 0, ErrInvalidInitData
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmacSHA256([]byte("WebAppData"), []byte(botToken))
	expected := hex.EncodeToString(hmacSHA256(secret, []byte(checkString)))
	if !hmac.Equal([]byte(expected), []byte(gotHash)) {
		return 0, ErrInvalidInitData
	}

	var user initDataUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return 0, ErrInvalidInitData
	}
	return user.ID, nil
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// SignInitData produces a correctly signed init data string. Test helper.
func SignInitData(values url.Values, botToken string) string {
	values.Del("hash")
	pairs := make([]string, 0, len(values))
	for key := range values {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	secret := hmacSHA256([]byte("WebAppData"), []byte(botToken))
	hash := hex.EncodeToString(hmacSHA256(secret, []byte(strings.Join(pairs, "\n"))))
	values.Set("hash", hash)
	return values.Encode()
}
