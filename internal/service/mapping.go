package service

import (
	"strings"

	"narrative-engine/internal/models"
)

func masculine(word string) bool {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "male", "man", "boy", "transmasc":
		return true
	}
	return false
}

func feminine(word string) bool {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "female", "woman", "girl", "transfem":
		return true
	}
	return false
}

// genderOf берёт гендер из ответа модели, при неизвестном значении
// смотрит на пол, иначе небинарный.
func genderOf(details models.PersonDetails) models.Gender {
	for _, word := range []string{details.Gender, details.Sex} {
		switch {
		case masculine(word):
			return models.GenderMale
		case feminine(word):
			return models.GenderFemale
		case strings.EqualFold(strings.TrimSpace(word), "nonbinary"):
			return models.GenderNonBinary
		}
	}
	return models.GenderNonBinary
}

// sexOf по умолчанию мужской.
func sexOf(details models.PersonDetails) models.Sex {
	switch strings.ToLower(strings.TrimSpace(details.Sex)) {
	case "female", "woman", "girl":
		return models.SexFemale
	default:
		return models.SexMale
	}
}
