package registrations

import (
	"errors"
	"strings"
)

// ErrUnterminatedQuote is returned when a line ends inside a quoted field.
var ErrUnterminatedQuote = errors.New("unterminated quoted field")

const utf8BOM = "\uFEFF"

// SplitLines splits an export into lines. Quoted fields spanning several lines are not
// supported; each physical line is one record.
func SplitLines(data string) []string {
	data = strings.TrimPrefix(data, utf8BOM)
	if data == "" {
		return nil
	}
	lines := strings.Split(data, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ParseLine splits a single CSV line into trimmed field values.
//
// A doubled quote inside a quoted field yields one literal quote. After splitting, a field
// left with an unpaired quote at either end has that quote stripped, so values from slightly
// unbalanced exports still come out clean while escaped quotes survive.
func ParseLine(line string) ([]string, error) {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuote && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuote = !inQuote
		case c == ',' && !inQuote:
			fields = append(fields, cleanField(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cleanField(cur.String()))

	if inQuote {
		return fields, ErrUnterminatedQuote
	}
	return fields, nil
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if strings.Count(s, `"`)%2 == 0 {
		return s
	}
	if strings.HasPrefix(s, `"`) {
		return strings.TrimSpace(s[1:])
	}
	if strings.HasSuffix(s, `"`) {
		return strings.TrimSpace(s[:len(s)-1])
	}
	return s
}
