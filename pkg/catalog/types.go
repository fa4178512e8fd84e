package catalog

const (
	TypeATV = "atv"
	TypeOMV = "omv"
)

// SongMeta is the relayed song metadata.
type SongMeta struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Image  string `json:"image"`
	Type   string `json:"type"`
}

type Playlist struct {
	Tracks []PlaylistTrack `json:"tracks"`
}

type PlaylistTrack struct {
	ID string `json:"id"`
}

// upstream shapes

type songResponse struct {
	VideoDetails videoDetails `json:"videoDetails"`
}

type videoDetails struct {
	VideoID        string    `json:"videoId"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	MusicVideoType string    `json:"musicVideoType"`
	Thumbnail      thumbnail `json:"thumbnail"`
}

type thumbnail struct {
	Thumbnails []thumbnailImage `json:"thumbnails"`
}

type thumbnailImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type playlistResponse struct {
	Tracks []playlistEntry `json:"tracks"`
}

type playlistEntry struct {
	VideoID string `json:"videoId"`
}
