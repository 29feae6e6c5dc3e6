package model

import (
	"path/filepath"
	"strings"
	"time"
)

// File categories derived from the extension at upload time.
const (
	CategoryDocument = "document"
	CategoryImage    = "image"
	CategoryVideo    = "video"
	CategoryAudio    = "audio"
	CategoryOther    = "other"
)

// File represents a stored file's metadata. The bytes themselves live in
// object storage under BucketFileID, which is distinct from the metadata
// record's ID.
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Extension    string    `json:"extension"`
	Category     string    `json:"type"`
	Size         int64     `json:"size"`
	OwnerID      string    `json:"ownerId"`
	BucketFileID string    `json:"bucketFileId"`
	ContentType  string    `json:"content_type"`
	SharedWith   []string  `json:"users"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var categoryByExt = map[string]string{
	"pdf": CategoryDocument, "doc": CategoryDocument, "docx": CategoryDocument,
	"txt": CategoryDocument, "xls": CategoryDocument, "xlsx": CategoryDocument,
	"csv": CategoryDocument, "rtf": CategoryDocument, "ods": CategoryDocument,
	"ppt": CategoryDocument, "pptx": CategoryDocument, "md": CategoryDocument,
	"html": CategoryDocument, "odt": CategoryDocument,

	"jpg": CategoryImage, "jpeg": CategoryImage, "png": CategoryImage,
	"gif": CategoryImage, "bmp": CategoryImage, "svg": CategoryImage,
	"webp": CategoryImage, "heic": CategoryImage,

	"mp4": CategoryVideo, "avi": CategoryVideo, "mov": CategoryVideo,
	"mkv": CategoryVideo, "webm": CategoryVideo, "flv": CategoryVideo,

	"mp3": CategoryAudio, "wav": CategoryAudio, "ogg": CategoryAudio,
	"flac": CategoryAudio, "aac": CategoryAudio, "m4a": CategoryAudio,
}

// SplitFilename returns the base name and lowercase extension (without dot)
// of an uploaded filename.
func SplitFilename(filename string) (name, ext string) {
	dotExt := filepath.Ext(filename)
	name = strings.TrimSuffix(filename, dotExt)
	ext = strings.ToLower(strings.TrimPrefix(dotExt, "."))
	return name, ext
}

// CategoryForExtension maps a file extension to its display category.
func CategoryForExtension(ext string) string {
	if c, ok := categoryByExt[strings.ToLower(ext)]; ok {
		return c
	}
	return CategoryOther
}
