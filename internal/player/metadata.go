package player

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// FileMetadata holds tags embedded in a downloaded episode file. Streamed
// episodes carry no file metadata; chapter images and titles there come
// from the feed instead.
type FileMetadata struct {
	Title      string
	Artist     string
	Album      string
	HasArtwork bool
}

// ReadFileMetadata extracts embedded tags from an audio file on disk.
func ReadFileMetadata(path string) (FileMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("read tags: %w", err)
	}

	return FileMetadata{
		Title:      m.Title(),
		Artist:     m.Artist(),
		Album:      m.Album(),
		HasArtwork: m.Picture() != nil,
	}, nil
}
