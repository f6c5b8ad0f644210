package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ignatzorin/incident-backend/internal/models"
)

// Константы валидации
const (
	MinNameLength        = 1
	MaxNameLength        = 100
	MaxLocationLength    = 500
	MinDescriptionLength = 10
	MaxDescriptionLength = 5000
	MaxWitnessesLength   = 2000
	MaxCommentLength     = 2000
)

var emailRegex = regexp.MustCompile(`^[a-z0-9._+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("некорректный формат email")
	}

	parts := strings.SplitN(email, "@", 2)
	if len(parts[0]) > 64 || len(parts[1]) > 255 {
		return fmt.Errorf("некорректный формат email")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateName проверяет имя или фамилию пользователя.
func ValidateName(fieldName, value string) error {
	if err := ValidateNonEmpty(fieldName, value); err != nil {
		return err
	}
	return ValidateLength(fieldName, strings.TrimSpace(value), MinNameLength, MaxNameLength)
}

// ValidateIncidentType проверяет тип инцидента по перечислению.
func ValidateIncidentType(incidentType string) error {
	if incidentType == "" {
		return fmt.Errorf("тип инцидента обязателен")
	}
	if !models.ValidIncidentTypes[incidentType] {
		return fmt.Errorf("недопустимый тип инцидента: %s", incidentType)
	}
	return nil
}

// ValidateReportStatus проверяет статус обращения по перечислению.
func ValidateReportStatus(status string) error {
	if status == "" {
		return fmt.Errorf("статус обязателен")
	}
	if !models.ValidReportStatuses[status] {
		return fmt.Errorf("недопустимый статус: %s", status)
	}
	return nil
}

// ValidateDate проверяет дату в формате YYYY-MM-DD.
func ValidateDate(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s обязательна", fieldName)
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("%s должна быть в формате YYYY-MM-DD", fieldName)
	}
	return nil
}

// ValidateTime проверяет время в формате HH:MM или HH:MM:SS.
func ValidateTime(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s обязательно", fieldName)
	}
	if _, err := time.Parse("15:04", value); err == nil {
		return nil
	}
	if _, err := time.Parse("15:04:05", value); err == nil {
		return nil
	}
	return fmt.Errorf("%s должно быть в формате HH:MM", fieldName)
}

// ValidateDescription проверяет описание инцидента.
func ValidateDescription(description string) error {
	if err := ValidateNonEmpty("описание", description); err != nil {
		return err
	}
	return ValidateLength("описание", strings.TrimSpace(description), MinDescriptionLength, MaxDescriptionLength)
}

// ValidateLocation проверяет место инцидента.
func ValidateLocation(location string) error {
	if err := ValidateNonEmpty("место инцидента", location); err != nil {
		return err
	}
	return ValidateLength("место инцидента", strings.TrimSpace(location), 1, MaxLocationLength)
}

// ValidateWitnesses проверяет необязательное поле свидетелей.
func ValidateWitnesses(witnesses *string) error {
	if witnesses == nil || *witnesses == "" {
		return nil
	}
	return ValidateLength("свидетели", *witnesses, 0, MaxWitnessesLength)
}
