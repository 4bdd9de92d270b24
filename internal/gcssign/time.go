package gcssign

import "time"

// SigningTime wraps a single captured instant with cached format
// strings. Both the full timestamp and the date stamp must come from
// the same instant; re-reading the clock between the two would skew the
// credential scope against X-Goog-Date and invalidate the signature
// server-side.
type SigningTime struct {
	time.Time
	timeFormat      string
	shortTimeFormat string
}

// NewSigningTime captures t for signing, converted to UTC and truncated
// to whole seconds.
func NewSigningTime(t time.Time) SigningTime {
	return SigningTime{
		Time: t.UTC().Truncate(time.Second),
	}
}

// TimeFormat returns the timestamp for X-Goog-Date and the
// string-to-sign. Format: YYYYMMDDTHHMMSSZ
func (st *SigningTime) TimeFormat() string {
	if st.timeFormat == "" {
		st.timeFormat = st.Time.Format(TimeFormat)
	}
	return st.timeFormat
}

// ShortTimeFormat returns the date stamp for the credential scope.
// Format: YYYYMMDD
func (st *SigningTime) ShortTimeFormat() string {
	if st.shortTimeFormat == "" {
		st.shortTimeFormat = st.Time.Format(ShortTimeFormat)
	}
	return st.shortTimeFormat
}
