package profile

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrMalformedParam reports a query parameter that needed more than
// canonicalization. Malformed numbers resolve to absent; malformed strings
// are coerced and kept so they still override session values.
var ErrMalformedParam = errors.New("malformed query parameter")

// Query parameter names recognized on the launch week page.
const (
	ParamID                = "id"
	ParamTicketNumber      = "ticketNumber"
	ParamName              = "name"
	ParamUsername          = "username"
	ParamGolden            = "golden"
	ParamBackgroundVariant = "bgImageId"
)

const (
	// MaxNameRunes bounds display names.
	MaxNameRunes = 64
	maxIDLength       = 128
	maxUsernameLength = 39
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{1,39}$`)

// Query holds the typed overrides parsed from page parameters.
type Query struct {
	ID                *string
	TicketNumber      *int
	Name              *string
	Username          *string
	Golden            *bool
	BackgroundVariant *int
	// Malformed names the parameters that were present but dropped or coerced.
	Malformed []string
}

// Empty reports whether no override is present.
func (q Query) Empty() bool {
	return q.ID == nil && q.TicketNumber == nil && q.Name == nil &&
		q.Username == nil && q.Golden == nil && q.BackgroundVariant == nil
}

// ParseQuery coerces every recognized parameter. It never fails; malformed
// parameters are listed in Malformed.
func ParseQuery(values url.Values) Query {
	var q Query
	note := func(param string, err error) {
		if err != nil {
			q.Malformed = append(q.Malformed, param)
		}
	}

	var err error
	q.ID, err = ParseID(values.Get(ParamID))
	note(ParamID, err)
	q.TicketNumber, err = ParseTicketNumber(values.Get(ParamTicketNumber))
	note(ParamTicketNumber, err)
	q.Name, err = ParseName(values.Get(ParamName))
	note(ParamName, err)
	q.Username, err = ParseUsername(values.Get(ParamUsername))
	note(ParamUsername, err)
	q.Golden, err = ParseGolden(values.Get(ParamGolden))
	note(ParamGolden, err)
	q.BackgroundVariant, err = ParseBackgroundVariant(values.Get(ParamBackgroundVariant))
	note(ParamBackgroundVariant, err)
	return q
}

// ParseID returns the trimmed id, truncated to maxIDLength bytes.
func ParseID(raw string) (*string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	if len(value) <= maxIDLength {
		return &value, nil
	}
	value = strings.ToValidUTF8(value[:maxIDLength], "")
	return &value, fmt.Errorf("%w: id too long", ErrMalformedParam)
}

// ParseTicketNumber accepts positive base-10 integers only.
func ParseTicketNumber(raw string) (*int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	number, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("%w: ticket number %q", ErrMalformedParam, value)
	}
	if number <= 0 {
		return nil, fmt.Errorf("%w: ticket number must be positive", ErrMalformedParam)
	}
	return &number, nil
}

// ParseName trims raw and truncates it to MaxNameRunes. A name with nothing
// printable is kept as "" so it still hides the session name.
func ParseName(raw string) (*string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	name, ok := NormalizeName(raw)
	if !ok {
		return &name, fmt.Errorf("%w: name", ErrMalformedParam)
	}
	return &name, nil
}

// ParseUsername canonicalizes raw. Handles outside the GitHub alphabet are
// coerced with CoerceUsername and reported as malformed.
func ParseUsername(raw string) (*string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	if username, ok := NormalizeUsername(raw); ok {
		return &username, nil
	}
	username := CoerceUsername(raw)
	return &username, fmt.Errorf("%w: username %q", ErrMalformedParam, raw)
}

// ParseGolden is tri-state: empty is unspecified, explicit negatives are
// false, and any other value is true.
func ParseGolden(raw string) (*bool, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return nil, nil
	}
	golden := true
	switch value {
	case "false", "0", "no", "off":
		golden = false
	}
	return &golden, nil
}

// ParseBackgroundVariant accepts non-negative integers.
func ParseBackgroundVariant(raw string) (*int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	variant, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("%w: background %q", ErrMalformedParam, value)
	}
	if variant < 0 {
		return nil, fmt.Errorf("%w: background must not be negative", ErrMalformedParam)
	}
	return &variant, nil
}

// NormalizeName strips control characters, trims and truncates raw to
// MaxNameRunes. It reports false when nothing printable remains.
func NormalizeName(raw string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" || !utf8.ValidString(cleaned) {
		return "", false
	}
	if utf8.RuneCountInString(cleaned) > MaxNameRunes {
		cleaned = strings.TrimSpace(string([]rune(cleaned)[:MaxNameRunes]))
	}
	return cleaned, true
}

// CoerceUsername lowercases raw, drops one leading @ and every character
// outside the GitHub handle alphabet, and truncates to 39 characters. The
// result may be empty.
func CoerceUsername(raw string) string {
	value := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "@")
	value = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		}
		return -1
	}, value)
	if len(value) > maxUsernameLength {
		value = value[:maxUsernameLength]
	}
	return value
}

// NormalizeUsername lowercases raw, drops one leading @ and validates it
// against the GitHub handle alphabet.
func NormalizeUsername(raw string) (string, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.TrimPrefix(value, "@")
	if !usernamePattern.MatchString(value) {
		return "", false
	}
	return value, true
}
