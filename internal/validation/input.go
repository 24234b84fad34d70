package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MaxTaskTitleLength       = 200
	MaxTaskDescriptionLength = 5000
	MaxExternalLinkLength    = 500
)

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

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateTaskTitle проверяет название задачи.
func ValidateTaskTitle(title string) error {
	title = strings.TrimSpace(title)
	if err := ValidateNonEmpty("название задачи", title); err != nil {
		return err
	}
	return ValidateLength("название задачи", title, 0, MaxTaskTitleLength)
}

// ValidateTaskDescription проверяет описание задачи.
func ValidateTaskDescription(description string) error {
	description = strings.TrimSpace(description)
	if err := ValidateNonEmpty("описание задачи", description); err != nil {
		return err
	}
	return ValidateLength("описание задачи", description, 0, MaxTaskDescriptionLength)
}

// ValidateExternalLink проверяет ссылку на внешний ресурс (доказательства по спору).
func ValidateExternalLink(link string) error {
	link = strings.TrimSpace(link)
	if err := ValidateLength("внешняя ссылка", link, 0, MaxExternalLinkLength); err != nil {
		return err
	}

	parsedURL, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("некорректный формат URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("ссылка должна начинаться с http:// или https://")
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("ссылка должна содержать доменное имя")
	}
	return nil
}
