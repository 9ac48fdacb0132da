package metadata

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// mimeByExtension maps the media extensions the player cares about. Content
// sniffing is the fallback for unknown or missing extensions.
var mimeByExtension = map[string]string{
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wma":  "audio/x-ms-wma",

	".mkv":  "video/x-matroska",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".ts":   "video/mp2t",
	".flv":  "video/x-flv",
	".ogv":  "video/ogg",
	".3gp":  "video/3gpp",
}

// detectMimeType resolves the MIME type of a local file, extension first,
// then a content sniff of the leading bytes.
func detectMimeType(path string) string {
	if mimeType, ok := mimeByExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return mimeType
	}

	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if n == 0 || (err != nil && n <= 0) {
		return ""
	}

	sniffed := http.DetectContentType(head[:n])
	if sniffed == "application/octet-stream" {
		return ""
	}
	return sniffed
}
