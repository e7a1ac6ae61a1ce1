// Package export renders report tables as CSV or XLSX and client order
// statements as PDF.
package export

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"papeleria/backend/internal/domain"
)

const TimestampLayout = "2006-01-02 15:04:05"

var ErrNoData = errors.New("no data to export")

// Money marks a cell holding an amount in cents.
type Money int64

type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// FileName returns base_YYYYMMDD_HHMMSS.ext with unsafe characters replaced.
func FileName(base string, ext string, at time.Time) string {
	safe := unsafeFileChars.ReplaceAllString(base, "_")
	if safe == "" {
		safe = "reporte"
	}
	return fmt.Sprintf("%s_%s.%s", safe, at.Format("20060102_150405"), ext)
}

// cellText renders a value the way it appears in a CSV cell.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case Money:
		return domain.FormatCents(int64(x))
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(TimestampLayout)
	case *time.Time:
		if x == nil || x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02")
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
