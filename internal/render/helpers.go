package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// ToAge converts time to human-readable duration
func ToAge(t *time.Time) string {
	if t == nil || t.IsZero() {
		return UnknownValue
	}
	return HumanDuration(time.Since(*t))
}

// HumanDuration converts duration to human readable format (e.g., "5d", "3h", "2m")
func HumanDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 365 {
		return fmt.Sprintf("%dy", days/365)
	}
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh", hours)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%ds", seconds)
}

// ToRelative renders a timestamp as "3 hours ago".
func ToRelative(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NAValue
	}
	return humanize.Time(*t)
}

// Missing returns MissingValue if string is empty
func Missing(s string) string {
	if s == "" {
		return MissingValue
	}
	return s
}

// NA returns NAValue if string is empty
func NA(s string) string {
	if s == "" {
		return NAValue
	}
	return s
}

// StrPtrToStr converts *string to string
func StrPtrToStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IntPtrToStr converts *int to string
func IntPtrToStr(i *int) string {
	if i == nil {
		return NAValue
	}
	return strconv.Itoa(*i)
}

// FormatSize formats bytes to human readable format
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return NAValue
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatCost formats a dollar amount, n/a when unknown.
func FormatCost(c *float64) string {
	if c == nil {
		return NAValue
	}
	return printer.Sprintf("$%.2f", *c)
}

// FormatDuration formats a millisecond duration.
func FormatDuration(ms *int) string {
	if ms == nil {
		return NAValue
	}
	d := time.Duration(*ms) * time.Millisecond
	if d < time.Second {
		return d.String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// FormatCount groups digits, e.g. 12,345.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// ShortID keeps the first segment of a UUID.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return Truncate(id, 8)
}

// Truncate truncates a string to max length
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// JoinStrings joins strings with separator, skipping empty ones
func JoinStrings(sep string, ss ...string) string {
	var parts []string
	for _, s := range ss {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}
