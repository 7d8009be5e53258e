package utils

import "regexp"

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

func IsValidPassword(password string) bool {
	return len(password) >= 6
}
