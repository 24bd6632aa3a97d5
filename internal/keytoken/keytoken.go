// Package keytoken implements the key-token grammar from spec §3.1/§6.1:
// the per-field-type encoding that lets a Key's fields serialize to, and
// parse back from, a single ';'-joined string. Each concrete Key type in
// this module calls these functions from hand-written KeyTokens/ParseTokens
// methods rather than going through a generic reflective walk, per the
// design note in spec.md §9.
package keytoken

import (
	"strconv"
	"strings"

	"tempstore/internal/core"
)

// EncodeString validates and returns a raw string token: non-empty, and
// free of ';' (which would break the join).
func EncodeString(s string) (string, error) {
	if s == "" {
		return "", core.NewError(core.KindValidation, "string key token must not be empty")
	}
	if strings.Contains(s, ";") {
		return "", core.NewError(core.KindValidation, "string key token %q must not contain ';'", s)
	}
	return s, nil
}

// DecodeString is the inverse of EncodeString; a token that survived the
// split is already validated, so this only exists for symmetry and future
// stricter checks.
func DecodeString(tok string) (string, error) {
	if tok == "" {
		return "", core.NewError(core.KindValidation, "string key token must not be empty")
	}
	return tok, nil
}

// EncodeEnum validates and returns an enum member name token; the grammar
// is identical to a plain string token.
func EncodeEnum(name string) (string, error) { return EncodeString(name) }

// DecodeEnum is the inverse of EncodeEnum.
func DecodeEnum(tok string) (string, error) { return DecodeString(tok) }

// EncodeBool renders a bool token as "true" or "false".
func EncodeBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// DecodeBool parses a "true"/"false" token.
func DecodeBool(tok string) (bool, error) {
	switch tok {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, core.NewError(core.KindValidation, "bool key token must be \"true\" or \"false\", got %q", tok)
	}
}

// EncodeInt renders an integer token as decimal text.
func EncodeInt(i int64) string { return strconv.FormatInt(i, 10) }

// DecodeInt parses a decimal integer token.
func DecodeInt(tok string) (int64, error) {
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, core.WrapError(core.KindValidation, err, "invalid integer key token %q", tok)
	}
	return v, nil
}

// EncodeTemporalId renders a TemporalId token as 24 hex characters.
func EncodeTemporalId(id core.TemporalId) string { return id.String() }

// DecodeTemporalId parses a 24-hex-character TemporalId token.
func DecodeTemporalId(tok string) (core.TemporalId, error) { return core.ParseTemporalId(tok) }

// LocalDate is a calendar date with no time-zone or time-of-day component.
type LocalDate struct {
	Year, Month, Day int
}

// EncodeLocalDate renders d as its YYYYMMDD decimal integer value (§3.1).
func EncodeLocalDate(d LocalDate) string {
	return strconv.Itoa(d.Year*10000 + d.Month*100 + d.Day)
}

// DecodeLocalDate parses a YYYYMMDD decimal integer token. The token is
// zero-padded to 8 digits before slicing, which is what makes the decimal
// encoding lossless despite Go's integer formatting dropping leading
// zeros: a date token is never shorter than 8 digits in practice since
// every supported year is 4 digits, but the padding keeps the two
// directions exact inverses of one another.
func DecodeLocalDate(tok string) (LocalDate, error) {
	padded, err := padDigits(tok, 8)
	if err != nil {
		return LocalDate{}, core.WrapError(core.KindValidation, err, "invalid LocalDate key token %q", tok)
	}
	year, _ := strconv.Atoi(padded[0:4])
	month, _ := strconv.Atoi(padded[4:6])
	day, _ := strconv.Atoi(padded[6:8])
	return LocalDate{Year: year, Month: month, Day: day}, nil
}

// LocalTime is a time of day with millisecond precision and no date or
// time-zone component.
type LocalTime struct {
	Hour, Minute, Second, Millis int
}

// EncodeLocalTime renders t as its HHMMSSMMM decimal integer value (§3.1).
func EncodeLocalTime(t LocalTime) string {
	return strconv.Itoa(t.Hour*10000000 + t.Minute*100000 + t.Second*1000 + t.Millis)
}

// DecodeLocalTime parses an HHMMSSMMM decimal integer token.
func DecodeLocalTime(tok string) (LocalTime, error) {
	padded, err := padDigits(tok, 9)
	if err != nil {
		return LocalTime{}, core.WrapError(core.KindValidation, err, "invalid LocalTime key token %q", tok)
	}
	hour, _ := strconv.Atoi(padded[0:2])
	minute, _ := strconv.Atoi(padded[2:4])
	second, _ := strconv.Atoi(padded[4:6])
	millis, _ := strconv.Atoi(padded[6:9])
	return LocalTime{Hour: hour, Minute: minute, Second: second, Millis: millis}, nil
}

// LocalMinute is a time of day truncated to the minute.
type LocalMinute struct {
	Hour, Minute int
}

// EncodeLocalMinute renders m as its HHMM decimal integer value (§3.1).
func EncodeLocalMinute(m LocalMinute) string {
	return strconv.Itoa(m.Hour*100 + m.Minute)
}

// DecodeLocalMinute parses an HHMM decimal integer token.
func DecodeLocalMinute(tok string) (LocalMinute, error) {
	padded, err := padDigits(tok, 4)
	if err != nil {
		return LocalMinute{}, core.WrapError(core.KindValidation, err, "invalid LocalMinute key token %q", tok)
	}
	hour, _ := strconv.Atoi(padded[0:2])
	minute, _ := strconv.Atoi(padded[2:4])
	return LocalMinute{Hour: hour, Minute: minute}, nil
}

// LocalDateTime is the concatenation of a LocalDate and a LocalTime.
type LocalDateTime struct {
	Date LocalDate
	Time LocalTime
}

// EncodeLocalDateTime renders dt as the concatenation of its date and time
// integers (§3.1/§6.1): YYYYMMDDHHMMSSMMM.
func EncodeLocalDateTime(dt LocalDateTime) string {
	dateVal := dt.Date.Year*10000 + dt.Date.Month*100 + dt.Date.Day
	timeVal := dt.Time.Hour*10000000 + dt.Time.Minute*100000 + dt.Time.Second*1000 + dt.Time.Millis
	return strconv.FormatInt(int64(dateVal)*1000000000+int64(timeVal), 10)
}

// DecodeLocalDateTime parses a YYYYMMDDHHMMSSMMM decimal integer token.
func DecodeLocalDateTime(tok string) (LocalDateTime, error) {
	padded, err := padDigits(tok, 17)
	if err != nil {
		return LocalDateTime{}, core.WrapError(core.KindValidation, err, "invalid LocalDateTime key token %q", tok)
	}
	date, err := DecodeLocalDate(padded[0:8])
	if err != nil {
		return LocalDateTime{}, err
	}
	time, err := DecodeLocalTime(padded[8:17])
	if err != nil {
		return LocalDateTime{}, err
	}
	return LocalDateTime{Date: date, Time: time}, nil
}

// padDigits left-pads a decimal digit string with zeros to width. It
// rejects tokens longer than width (which can only mean a caller handed a
// value that can't fit the documented field shape) or that aren't pure
// decimal digits.
func padDigits(tok string, width int) (string, error) {
	if tok == "" {
		return "", core.NewError(core.KindValidation, "empty numeric token")
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return "", core.NewError(core.KindValidation, "token %q is not a decimal integer", tok)
		}
	}
	if len(tok) > width {
		return "", core.NewError(core.KindValidation, "token %q is longer than the expected width %d", tok, width)
	}
	return strings.Repeat("0", width-len(tok)) + tok, nil
}
