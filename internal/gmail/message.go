package gmail

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// ErrNoRecipients indicates a message was built without any To address.
var ErrNoRecipients = errors.New("at least one To recipient is required")

// Message represents one outbound email prior to transport encoding.
// Cc, Bcc and Attachments are optional; Attachments holds filesystem
// paths that are read and embedded at encode time.
type Message struct {
	From        string
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	Attachments []string
}

// Encode assembles the message into the base64url-encoded raw envelope
// the Gmail API expects: RFC 5322 headers, a text/plain body part and
// one MIME part per attachment, wrapped in multipart/mixed.
func (m *Message) Encode() (*gmail.Message, error) {
	if len(m.To) == 0 {
		return nil, ErrNoRecipients
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	writeHeader(&buf, "From", m.From)
	writeHeader(&buf, "To", strings.Join(m.To, ", "))
	if len(m.Cc) > 0 {
		writeHeader(&buf, "Cc", strings.Join(m.Cc, ", "))
	}
	if len(m.Bcc) > 0 {
		writeHeader(&buf, "Bcc", strings.Join(m.Bcc, ", "))
	}
	writeHeader(&buf, "Subject", encodeRFC2047(m.Subject))
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", mw.Boundary()))
	buf.WriteString("\r\n")

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/plain; charset="UTF-8"`},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	if _, err := body.Write([]byte(m.Body)); err != nil {
		return nil, fmt.Errorf("failed to write body part: %w", err)
	}

	for _, path := range m.Attachments {
		if err := encodeAttachment(mw, path); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}

	return &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

// encodeRFC2047 encodes a string for use in email headers according to
// RFC 2047. This is necessary for non-ASCII characters (like German
// umlauts) in subjects.
func encodeRFC2047(s string) string {
	needsEncoding := false
	for _, r := range s {
		if r > 127 {
			needsEncoding = true
			break
		}
	}
	if !needsEncoding {
		return s
	}
	return mime.BEncoding.Encode("UTF-8", s)
}
