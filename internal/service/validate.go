package service

import (
	"regexp"
	"strings"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	emailPattern    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

const maxUsernameLen = 64

func validateUsername(verr *domain.ValidationError, username string) {
	switch {
	case username == "":
		verr.Add("username", domain.MsgBlank)
	case len(username) > maxUsernameLen || !usernamePattern.MatchString(username):
		verr.Add("username", domain.MsgInvalid)
	}
}

func validateEmail(verr *domain.ValidationError, email string) {
	switch {
	case email == "":
		verr.Add("email", domain.MsgBlank)
	case !emailPattern.MatchString(email):
		verr.Add("email", domain.MsgInvalid)
	}
}

func requireField(verr *domain.ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		verr.Add(field, domain.MsgBlank)
	}
}

// normalizeIdentity lowercases and trims the case-insensitive fields.
func normalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
