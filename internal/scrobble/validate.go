package scrobble

import (
	"strings"
	"time"
)

// MinTrackLength is the shortest play the submission service will
// accept as a scrobble.
const MinTrackLength = 31 * time.Second

// earliestTimestamp is the earliest date the service plausibly ran;
// anything before it is bad data, not history.
var earliestTimestamp = time.Date(2003, time.January, 1, 0, 0, 0, 0, time.UTC)

// Invalidity names the reason a track was refused.
type Invalidity int

const (
	TooShort Invalidity = iota
	NoTimestamp
	FromTheFuture
	FromTheDistantPast
	ArtistNameMissing
	TrackNameMissing
	ArtistInvalid
)

func (i Invalidity) String() string {
	switch i {
	case TooShort:
		return "too short"
	case NoTimestamp:
		return "no timestamp"
	case FromTheFuture:
		return "from the future"
	case FromTheDistantPast:
		return "from the distant past"
	case ArtistNameMissing:
		return "artist name missing"
	case TrackNameMissing:
		return "track name missing"
	case ArtistInvalid:
		return "artist invalid"
	default:
		return "unknown"
	}
}

// placeholderArtists are values taggers write when they have no real
// artist name. Matched case-insensitively, whole string only.
var placeholderArtists = []string{
	"unknown artist",
	"unknown",
	"[unknown]",
	"[unknown artist]",
}

// checks run in order; the first failing check names the defect.
// Callers key off the first reported reason, so the order is part of
// the contract.
var checks = []struct {
	reason Invalidity
	bad    func(Track, time.Time) bool
}{
	{TooShort, func(t Track, _ time.Time) bool {
		return t.Duration() < MinTrackLength
	}},
	{NoTimestamp, func(t Track, _ time.Time) bool {
		return t.StartedAt.IsZero()
	}},
	// Server-side spam prevention is much tighter than a month, but
	// the server's idea of "the future" may change; this only weeds
	// out obviously bad data.
	{FromTheFuture, func(t Track, now time.Time) bool {
		return t.StartedAt.After(now.AddDate(0, 1, 0))
	}},
	{FromTheDistantPast, func(t Track, _ time.Time) bool {
		return t.StartedAt.Before(earliestTimestamp)
	}},
	{ArtistNameMissing, func(t Track, _ time.Time) bool {
		return t.Artist == ""
	}},
	{TrackNameMissing, func(t Track, _ time.Time) bool {
		return t.Title == ""
	}},
	{ArtistInvalid, func(t Track, _ time.Time) bool {
		name := strings.ToLower(t.Artist)
		for _, p := range placeholderArtists {
			if name == p {
				return true
			}
		}
		return false
	}},
}

// Classify decides whether a track is admissible for caching. It
// returns ok=true for an admissible track; otherwise ok=false and the
// first defect found, in check order. Pure: invalid input is a normal
// return, never an error.
func Classify(t Track) (reason Invalidity, ok bool) {
	return classifyAt(t, time.Now())
}

func classifyAt(t Track, now time.Time) (Invalidity, bool) {
	for _, c := range checks {
		if c.bad(t, now) {
			return c.reason, false
		}
	}
	return 0, true
}
