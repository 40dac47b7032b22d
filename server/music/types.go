package music

// UnknownArtist is the sentinel artist name used when a source exposes a
// track without any recoverable performer information.
const UnknownArtist = "未知歌手"

// MusicItem is the normalized search result shared by all providers.
// It maps from provider-specific payloads and is request-scoped: the only
// state the caller needs to carry back for playback is (Provider, ID) plus
// the opaque Extra payload.
type MusicItem struct {
	// ID is the provider-specific track identifier. It is only meaningful
	// together with Provider.
	ID string `json:"id"`

	// Title is the track name with whitespace collapsed.
	Title string `json:"title"`

	// Artist is the performer name, or UnknownArtist when unrecoverable.
	Artist string `json:"artist"`

	// Album is the album name (if available).
	Album string `json:"album,omitempty"`

	// Cover is the URL to the track's cover art (if available).
	Cover string `json:"cover,omitempty"`

	// Duration is the track length as a display string (if available).
	Duration string `json:"duration,omitempty"`

	// Provider is the identifier of the provider that produced this item.
	Provider string `json:"provider"`

	// Extra carries provider-defined data from search to resolution.
	// It is never inspected outside the owning provider.
	Extra map[string]string `json:"extra,omitempty"`
}

// PlayInfo is the normalized result of resolving one item to a playable URL.
type PlayInfo struct {
	// URL is a direct or redirect-eligible media URL.
	URL string `json:"url"`

	// Type is an audio container hint ("mp3", "m4a", "flac", or whatever
	// the source reports). Used for filenames only, never validated.
	Type string `json:"type"`

	// Bitrate is a descriptive bitrate string (if known).
	Bitrate string `json:"bitrate,omitempty"`

	// Cover is the URL to cover art discovered at resolution time. When
	// set it supersedes the cover known from the search step.
	Cover string `json:"cover,omitempty"`
}
