package github

import (
	"strings"

	domainErrors "github.com/thomas-vilte/issuebot/internal/errors"
)

// Relation names used by the GitHub REST API in Link headers.
const (
	RelNext  = "next"
	RelLast  = "last"
	RelFirst = "first"
	RelPrev  = "prev"
)

// ParseLinkHeader maps relation names to URLs from an RFC 8288 Link header.
//
// Format: <https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
//
// Entries that cannot be parsed are skipped. An empty header yields an empty
// map. When a relation appears more than once the last entry wins.
func ParseLinkHeader(header string) map[string]string {
	relations, _ := ParseLinkHeaderEntries(header)
	return relations
}

// ParseLinkHeaderEntries behaves like ParseLinkHeader and also returns one
// *errors.MalformedLinkError for every entry it had to skip.
func ParseLinkHeaderEntries(header string) (map[string]string, []error) {
	relations := make(map[string]string)
	if strings.TrimSpace(header) == "" {
		return relations, nil
	}

	var malformed []error
	for _, entry := range splitUnquoted(header, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		target, rels, err := parseLinkEntry(entry)
		if err != nil {
			malformed = append(malformed, err)
			continue
		}
		for _, rel := range rels {
			relations[rel] = target
		}
	}

	return relations, malformed
}

// splitUnquoted splits s on sep where sep is outside <...> and quoted
// strings. URLs and parameter values may both contain commas and semicolons.
func splitUnquoted(s string, sep byte) []string {
	var (
		entries  []string
		start    int
		inURL    bool
		inQuotes bool
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '<' && !inQuotes:
			inURL = true
		case c == '>' && !inQuotes:
			inURL = false
		case c == '"' && !inURL:
			inQuotes = !inQuotes
		case c == sep && !inURL && !inQuotes:
			entries = append(entries, s[start:i])
			start = i + 1
		}
	}
	return append(entries, s[start:])
}

func parseLinkEntry(entry string) (string, []string, error) {
	if !strings.HasPrefix(entry, "<") {
		return "", nil, domainErrors.NewMalformedLinkError(entry, "missing '<' before the URL")
	}
	end := strings.IndexByte(entry, '>')
	if end < 0 {
		return "", nil, domainErrors.NewMalformedLinkError(entry, "missing '>' after the URL")
	}

	target := strings.TrimSpace(entry[1:end])
	if target == "" {
		return "", nil, domainErrors.NewMalformedLinkError(entry, "empty URL")
	}

	for _, param := range splitUnquoted(entry[end+1:], ';') {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
			continue
		}

		value = strings.Trim(strings.TrimSpace(value), `"`)
		rels := strings.Fields(strings.ToLower(value))
		if len(rels) == 0 {
			return "", nil, domainErrors.NewMalformedLinkError(entry, "empty rel attribute")
		}
		return target, rels, nil
	}

	return "", nil, domainErrors.NewMalformedLinkError(entry, "missing rel attribute")
}
