package episode

// Location describes where the player should read an episode from.
// Exactly one of the variants applies to a playable at a time.
type Location interface {
	isLocation()
}

// Stream plays over the network from a URL.
type Stream struct {
	URI string
}

// LocalFile plays from a completed download on disk.
type LocalFile struct {
	FilePath string
}

func (Stream) isLocation()    {}
func (LocalFile) isLocation() {}

// LocationOf derives the source location for a playable.
// A completed download always wins over streaming.
func LocationOf(p Playable) Location {
	if p.IsDownloaded() {
		return LocalFile{FilePath: p.DownloadedFilePath()}
	}
	return Stream{URI: p.DownloadURL()}
}

// IsStreaming reports whether the location reads from the network.
func IsStreaming(l Location) bool {
	_, ok := l.(Stream)
	return ok
}
