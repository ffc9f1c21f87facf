package model

import "errors"

// Keys of the persisted session store.
const (
	KeyToken           = "token"
	KeySavedToken      = "savedToken"
	KeyRememberedEmail = "rememberedEmail"
	KeyRememberMe      = "rememberMe"
	KeyUserID          = "userId"
	KeyDarkMode        = "isDarkMode"
)

// RememberMeValue is the only value stored under KeyRememberMe.
const RememberMeValue = "true"

// SessionKeys are the keys cleared on logout. The theme flag survives.
var SessionKeys = []string{KeyToken, KeySavedToken, KeyRememberedEmail, KeyRememberMe, KeyUserID}

var ErrRememberedSessionIncomplete = errors.New("remembered session is missing savedToken or rememberedEmail")

// Session is the persisted authentication state of one device.
type Session struct {
	Token           string
	SavedToken      string
	UserID          string
	RememberMe      bool
	RememberedEmail string
}

// Active reports whether any token can be used for authenticated calls.
func (s Session) Active() bool {
	return s.Token != "" || s.SavedToken != ""
}

// Validate checks that a remembered session carries its saved token and email.
func (s Session) Validate() error {
	if s.RememberMe && s.Token != "" && (s.SavedToken == "" || s.RememberedEmail == "") {
		return ErrRememberedSessionIncomplete
	}
	return nil
}
