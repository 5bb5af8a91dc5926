package media

import "regexp"

// extractor is a single entry in the site registry. Patterns are anchored to
// the URL scheme so bare text never matches.
type extractor struct {
	name    string
	pattern *regexp.Regexp
}

// The registry mirrors the downloader's own extractor set: specific sites
// first, with a generic catch-all last. A URL claimed only by the generic
// entry is not treated as playable media.
var extractors = []extractor{
	{"youtube", regexp.MustCompile(`^https?://(www\.|m\.|music\.)?youtube\.com/(watch\?|shorts/|live/|playlist\?)`)},
	{"youtube:short", regexp.MustCompile(`^https?://youtu\.be/[\w-]{6,}`)},
	{"vimeo", regexp.MustCompile(`^https?://(www\.)?vimeo\.com/\d+`)},
	{"soundcloud", regexp.MustCompile(`^https?://(www\.|m\.)?soundcloud\.com/[\w-]+/[\w-]+`)},
	{"twitch:vod", regexp.MustCompile(`^https?://(www\.)?twitch\.tv/videos/\d+`)},
	{"dailymotion", regexp.MustCompile(`^https?://(www\.)?dailymotion\.com/video/\w+`)},
	{"bandcamp", regexp.MustCompile(`^https?://[\w-]+\.bandcamp\.com/track/[\w-]+`)},
	{extractorGeneric, regexp.MustCompile(`^https?://`)},
}

const extractorGeneric = "generic"

// IsSupported reports whether at least one non-generic extractor claims the
// URL as playable media.
func IsSupported(url string) bool {
	for _, ex := range extractors {
		if ex.name == extractorGeneric {
			continue
		}
		if ex.pattern.MatchString(url) {
			return true
		}
	}
	return false
}
