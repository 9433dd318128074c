package telegram

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

var ErrNoUser = errors.New("init data has no user")

// WebAppUser is the user object embedded in init_data.
type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	PhotoURL  string `json:"photo_url"`
}

// Identity is the external identity used for auto-login.
type Identity struct {
	TelegramID int64
	Username   string
	FirstName  string
	PhotoURL   string
}

// DisplayName is the preferred username for a new account.
func (i Identity) DisplayName() string {
	if name := strings.TrimSpace(i.Username); name != "" {
		return name
	}
	return strings.TrimSpace(i.FirstName)
}

// LaunchContext is what the mini-app host hands over on start.
type LaunchContext struct {
	Identity     *Identity
	ReferralCode string
}

func ParseUser(values url.Values) (*WebAppUser, error) {
	raw := values.Get("user")
	if raw == "" {
		return nil, ErrNoUser
	}
	var user WebAppUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, ErrNoUser
	}
	return &user, nil
}

// ParseLaunch reads the user and the start_param referral attribution from
// validated init data.
func ParseLaunch(values url.Values) (LaunchContext, error) {
	user, err := ParseUser(values)
	if err != nil {
		return LaunchContext{}, err
	}
	return LaunchContext{
		Identity: &Identity{
			TelegramID: user.ID,
			Username:   user.Username,
			FirstName:  user.FirstName,
			PhotoURL:   user.PhotoURL,
		},
		ReferralCode: ReferralFromStartParam(values.Get("start_param")),
	}, nil
}

// ReferralFromStartParam accepts "ref_<CODE>" or a bare code.
func ReferralFromStartParam(param string) string {
	param = strings.TrimSpace(param)
	if len(param) >= 4 && strings.EqualFold(param[:4], "ref_") {
		param = param[4:]
	}
	return strings.ToUpper(param)
}

// StartParam is the deep-link parameter that carries code.
func StartParam(code string) string {
	return "ref_" + code
}

// BotLink is the t.me deep link that starts the bot with code attached.
func BotLink(botUsername, code string) string {
	link := "https://t.me/" + strings.TrimPrefix(botUsername, "@")
	if code == "" {
		return link
	}
	return link + "?start=" + url.QueryEscape(StartParam(code))
}

// WebLink opens the web app with code in the ref query parameter.
func WebLink(webAppURL, code string) string {
	if webAppURL == "" || code == "" {
		return webAppURL
	}
	u, err := url.Parse(webAppURL)
	if err != nil {
		return webAppURL
	}
	q := u.Query()
	q.Set("ref", code)
	u.RawQuery = q.Encode()
	return u.String()
}
