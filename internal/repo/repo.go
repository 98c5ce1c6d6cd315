package repo

import "strings"

// isDupKey sniffs unique-violation errors without depending on
// gorm.ErrDuplicatedKey, which varies across driver versions.
func isDupKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
