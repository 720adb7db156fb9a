// Package retention computes the derived trash state of media items. Nothing in
// here reads the wall clock, "now" is always passed in.
package retention

import (
	"time"

	"gallery/photo-api/internal/model"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	DefaultWindowDays = 60
	DefaultWarnDays   = 7

	day = 24 * time.Hour
)

const (
	msgDaysLeft = "%d days left"
	msgExpired  = "Expired, waiting for deletion"
)

var messages = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	b.Set(language.English, msgDaysLeft, plural.Selectf(1, "%d",
		"=1", "1 day left",
		"other", "%d days left",
	))
	b.SetString(language.English, msgExpired, msgExpired)

	b.SetString(language.Vietnamese, msgDaysLeft, "Còn %d ngày")
	b.SetString(language.Vietnamese, msgExpired, "Đã hết hạn, đang chờ xóa")

	return b
}()

type Policy struct {
	WindowDays int
	WarnDays   int
	printer    *message.Printer
}

// Window is the derived retention state of one trashed item
type Window struct {
	DaysRemaining     int    `json:"days_remaining"`
	IsExpiringSoon    bool   `json:"is_expiring_soon"`
	IsExpired         bool   `json:"is_expired"`
	ExpirationMessage string `json:"expiration_message"`
}

// New returns a policy. Non positive values fall back to the defaults and
// unknown locales fall back to English.
func New(windowDays, warnDays int, locale string) *Policy {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if warnDays < 0 {
		warnDays = DefaultWarnDays
	}

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	return &Policy{
		WindowDays: windowDays,
		WarnDays:   warnDays,
		printer:    message.NewPrinter(tag, message.Catalog(messages)),
	}
}

// DaysElapsed is the number of whole days since deletedAt. A deletion time in
// the future counts as zero.
func (p *Policy) DaysElapsed(deletedAt, now time.Time) int {
	d := now.Sub(deletedAt)
	if d < 0 {
		return 0
	}

	return int(d / day)
}

// DaysRemaining returns the whole days left before an item becomes eligible
// for purge. Items that aren't trashed get the full window.
func (p *Policy) DaysRemaining(deletedAt *time.Time, now time.Time) int {
	if deletedAt == nil {
		return p.WindowDays
	}

	return max(0, p.WindowDays-p.DaysElapsed(*deletedAt, now))
}

func (p *Policy) IsExpired(deletedAt *time.Time, now time.Time) bool {
	if deletedAt == nil {
		return false
	}

	return p.DaysElapsed(*deletedAt, now) >= p.WindowDays
}

func (p *Policy) IsExpiringSoon(deletedAt *time.Time, now time.Time) bool {
	if deletedAt == nil || p.IsExpired(deletedAt, now) {
		return false
	}

	left := p.DaysRemaining(deletedAt, now)
	return left > 0 && left <= p.WarnDays
}

func (p *Policy) ExpirationMessage(deletedAt *time.Time, now time.Time) string {
	if deletedAt == nil {
		return ""
	}

	if p.IsExpired(deletedAt, now) {
		return p.printer.Sprintf(msgExpired)
	}

	return p.printer.Sprintf(msgDaysLeft, p.DaysRemaining(deletedAt, now))
}

func (p *Policy) Window(deletedAt *time.Time, now time.Time) Window {
	return Window{
		DaysRemaining:     p.DaysRemaining(deletedAt, now),
		IsExpiringSoon:    p.IsExpiringSoon(deletedAt, now),
		IsExpired:         p.IsExpired(deletedAt, now),
		ExpirationMessage: p.ExpirationMessage(deletedAt, now),
	}
}

// Cutoff is the latest deletion time that is already expired at now
func (p *Policy) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(p.WindowDays) * day)
}

// EligibleForPurge returns the ids of trashed items whose window has expired,
// keeping the input order
func (p *Policy) EligibleForPurge(items []model.MediaItem, now time.Time) []uint {
	ids := []uint{}

	for _, it := range items {
		if !it.DeletedAt.Valid {
			continue
		}

		if p.IsExpired(&it.DeletedAt.Time, now) {
			ids = append(ids, it.ID)
		}
	}

	return ids
}
