package gmail

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxAttachmentSize defines the maximum attachment size in bytes (25MB)
	MaxAttachmentSize = 25 * 1024 * 1024

	// base64LineLength is the RFC 2045 maximum encoded line length
	base64LineLength = 76
)

// encodeAttachment reads the file at path and appends it to mw as a
// base64-encoded MIME part carrying the inferred content type and the
// file's base name.
func encodeAttachment(mw *multipart.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read attachment %s: %w", path, err)
	}
	if len(data) > MaxAttachmentSize {
		return fmt.Errorf("attachment %s size %d exceeds maximum size %d", path, len(data), MaxAttachmentSize)
	}

	filename := filepath.Base(path)
	contentType := attachmentType(path)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Type", fmt.Sprintf("%s; name=%q", contentType, filename))
	hdr.Set("Content-Transfer-Encoding", "base64")
	hdr.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	part, err := mw.CreatePart(hdr)
	if err != nil {
		return fmt.Errorf("failed to create attachment part for %s: %w", path, err)
	}
	return writeBase64(part, data)
}

// attachmentType infers the MIME type from the file extension, falling
// back to a generic binary type when inference fails. Spreadsheets keep
// the legacy vnd-xls type some receivers expect.
func attachmentType(path string) string {
	if strings.HasSuffix(path, ".xlsx") {
		return "application/vnd-xls"
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

// writeBase64 writes data base64-encoded with RFC 2045 line wrapping.
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := base64LineLength
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err := io.WriteString(w, encoded[:n]+"\r\n"); err != nil {
			return fmt.Errorf("failed to write attachment data: %w", err)
		}
		encoded = encoded[n:]
	}
	return nil
}
