package scrobble

import (
	"encoding/xml"
	"time"
)

// Track is one play of one song: what was played and when it started.
type Track struct {
	Title      string
	Artist     string
	Album      string
	DurationMs int
	// StartedAt is when playback began. The zero value means the
	// timestamp is unknown.
	StartedAt time.Time
}

// Equal reports whether two tracks describe the same submission.
// Every field participates; there is no notion of identity beyond the
// field values themselves.
func (t Track) Equal(o Track) bool {
	return t.Title == o.Title &&
		t.Artist == o.Artist &&
		t.Album == o.Album &&
		t.DurationMs == o.DurationMs &&
		t.StartedAt.Equal(o.StartedAt)
}

// IsZero reports whether t is a default-constructed placeholder rather
// than a real play.
func (t Track) IsZero() bool {
	return t.Title == "" && t.Artist == "" && t.Album == "" &&
		t.DurationMs == 0 && t.StartedAt.IsZero()
}

// Duration returns the track length.
func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationMs) * time.Millisecond
}

// trackXML is the on-disk shape of a single <track> element. The
// title lives in a nested <track> child and the duration is whole
// seconds, the submission cache format the service has always used.
type trackXML struct {
	Artist    string `xml:"artist"`
	Album     string `xml:"album,omitempty"`
	Title     string `xml:"track"`
	Duration  int    `xml:"duration"`
	Timestamp int64  `xml:"timestamp"`
}

func (t Track) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "track"}
	var ts int64
	if !t.StartedAt.IsZero() {
		ts = t.StartedAt.Unix()
	}
	return e.EncodeElement(trackXML{
		Artist:    t.Artist,
		Album:     t.Album,
		Title:     t.Title,
		Duration:  t.DurationMs / 1000,
		Timestamp: ts,
	}, start)
}

func (t *Track) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw trackXML
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	t.Artist = raw.Artist
	t.Album = raw.Album
	t.Title = raw.Title
	t.DurationMs = raw.Duration * 1000
	if raw.Timestamp > 0 {
		t.StartedAt = time.Unix(raw.Timestamp, 0).UTC()
	} else {
		t.StartedAt = time.Time{}
	}
	return nil
}
