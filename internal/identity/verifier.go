// Package identity is the boundary to the external initData validator. The
// rest of the system consumes it as a black box: an opaque signed token goes
// in, a stable user identity comes out.
package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalid is returned for any token that does not verify. The HTTP layer
// maps it to the 401 contract.
var ErrInvalid = errors.New("identity: invalid init data")

// Identity is the stable identity resolved from a signed token.
type Identity struct {
	UserID      string
	DisplayName string
	Premium     bool
}

// Verifier validates an opaque signed token.
type Verifier interface {
	Verify(ctx context.Context, initData string) (Identity, error)
}

// TelegramVerifier validates Telegram WebApp initData: the hash field must be
// the HMAC-SHA256 of the sorted key=value lines under a secret derived from
// the bot token.
type TelegramVerifier struct {
	botToken string
}

func NewTelegramVerifier(botToken string) *TelegramVerifier {
	return &TelegramVerifier{botToken: botToken}
}

type initDataUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	IsPremium bool   `json:"is_premium"`
}

func (v *TelegramVerifier) Verify(_ context.Context, initData string) (Identity, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return Identity{}, ErrInvalid
	}
	gotHash := values.Get("hash")
	if gotHash == "" {
		return Identity{}, ErrInvalid
	}

	lines := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		lines = append(lines, k+"="+values.Get(k))
	}
	sort.Strings(lines)
	checkString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(v.botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	want := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(gotHash)) {
		return Identity{}, ErrInvalid
	}

	var u initDataUser
	if err := json.Unmarshal([]byte(values.Get("user")), &u); err != nil || u.ID == 0 {
		return Identity{}, ErrInvalid
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return Identity{
		UserID:      strconv.FormatInt(u.ID, 10),
		DisplayName: name,
		Premium:     u.IsPremium,
	}, nil
}

// Static is a fixed token->identity mapping for tests and local development.
type Static map[string]Identity

func (s Static) Verify(_ context.Context, initData string) (Identity, error) {
	id, ok := s[initData]
	if !ok {
		return Identity{}, ErrInvalid
	}
	return id, nil
}
