package media

import "fmt"

// FileTooLargeMessage is shown when the final artifact exceeds the hard size
// limit even after the fallback transcode.
const FileTooLargeMessage = "The audio file is too large for the current size and rate limits. " +
	"If you used a media link, please try a shorter clip. If you uploaded an audio file, " +
	"try trimming or compressing the audio to under 25 MB."

// ValidationError indicates an unsupported source link.
type ValidationError struct {
	URL string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("unsupported media link: %s", e.URL)
}

// FetchError indicates the download sequence exhausted its retries.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SizeLimitError indicates the artifact is still over the hard limit after
// the fallback path. Non-retryable and user-facing.
type SizeLimitError struct {
	Path string
	Size int64
	Max  int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("%s (%d bytes, limit %d): %s", e.Path, e.Size, e.Max, FileTooLargeMessage)
}
