package application

import (
	"golang.org/x/text/language"

	"civicvote/contexts/participation/ballot-engine/domain/entities"
)

// ResolveLocale matches a requested locale against the election's configured
// locale set and falls back to the election default. Locale is always passed
// explicitly through the request, never held in process-wide state.
func ResolveLocale(election entities.Election, requested string) string {
	if len(election.Locales) == 0 {
		if requested != "" {
			return requested
		}
		return election.DefaultLocale
	}
	if requested == "" {
		return election.DefaultLocale
	}

	tags := make([]language.Tag, 0, len(election.Locales))
	supported := make([]string, 0, len(election.Locales))
	for _, locale := range election.Locales {
		tag, err := language.Parse(locale)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		supported = append(supported, locale)
	}
	if len(tags) == 0 {
		return election.DefaultLocale
	}

	matcher := language.NewMatcher(tags)
	_, index := language.MatchStrings(matcher, requested)
	if index < 0 || index >= len(supported) {
		return election.DefaultLocale
	}
	return supported[index]
}
