package gmail

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parsedPart captures one drained MIME part for assertions.
type parsedPart struct {
	header textproto.MIMEHeader
	body   string
}

// decodeEnvelope decodes the base64url Raw payload back into a parsed
// mail message.
func decodeEnvelope(t *testing.T, raw string) *mail.Message {
	t.Helper()

	data, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err, "Raw should be base64url-encoded")

	msg, err := mail.ReadMessage(strings.NewReader(string(data)))
	require.NoError(t, err, "decoded envelope should be a valid RFC 5322 message")
	return msg
}

// readParts parses the multipart body into drained parts.
func readParts(t *testing.T, msg *mail.Message) []parsedPart {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)
	require.NotEmpty(t, params["boundary"])

	var parts []parsedPart
	mr := multipart.NewReader(msg.Body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		body, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, parsedPart{header: p.Header, body: string(body)})
	}
	return parts
}

// decodeBase64Part strips the line wrapping and decodes an attachment
// part's payload.
func decodeBase64Part(t *testing.T, body string) []byte {
	t.Helper()

	compact := strings.NewReplacer("\r", "", "\n", "").Replace(body)
	data, err := base64.StdEncoding.DecodeString(compact)
	require.NoError(t, err)
	return data
}

func TestEncodeBasicHeaders(t *testing.T) {
	msg := &Message{
		From:    "a@x.com",
		To:      []string{"b@x.com"},
		Subject: "Test",
		Body:    "Hello",
	}

	encoded, err := msg.Encode()
	require.NoError(t, err)
	require.NotEmpty(t, encoded.Raw)

	parsed := decodeEnvelope(t, encoded.Raw)
	assert.Equal(t, "a@x.com", parsed.Header.Get("From"))
	assert.Equal(t, "b@x.com", parsed.Header.Get("To"))
	assert.Equal(t, "Test", parsed.Header.Get("Subject"))

	// Optional headers must be absent, not empty.
	_, hasCc := parsed.Header["Cc"]
	_, hasBcc := parsed.Header["Bcc"]
	assert.False(t, hasCc, "Cc header should be absent")
	assert.False(t, hasBcc, "Bcc header should be absent")

	parts := readParts(t, parsed)
	require.Len(t, parts, 1)
	assert.Contains(t, parts[0].header.Get("Content-Type"), "text/plain")
	assert.Equal(t, "Hello", parts[0].body)
}

func TestEncodeMultipleRecipients(t *testing.T) {
	msg := &Message{
		From:    "a@x.com",
		To:      []string{"b@x.com", "c@x.com", "d@x.com"},
		Subject: "Test",
		Body:    "Hello",
	}

	encoded, err := msg.Encode()
	require.NoError(t, err)

	parsed := decodeEnvelope(t, encoded.Raw)
	assert.Equal(t, "b@x.com, c@x.com, d@x.com", parsed.Header.Get("To"))
}

func TestEncodeRecipientJoining(t *testing.T) {
	tests := []struct {
		name    string
		cc      []string
		bcc     []string
		wantCc  string
		wantBcc string
	}{
		{
			name:   "cc joined in input order",
			cc:     []string{"c1@x.com", "c2@x.com"},
			wantCc: "c1@x.com, c2@x.com",
		},
		{
			name:    "bcc joined in input order",
			bcc:     []string{"b2@x.com", "b1@x.com"},
			wantBcc: "b2@x.com, b1@x.com",
		},
		{
			name:    "cc and bcc together",
			cc:      []string{"c@x.com"},
			bcc:     []string{"d@x.com", "e@x.com"},
			wantCc:  "c@x.com",
			wantBcc: "d@x.com, e@x.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &Message{
				From:    "a@x.com",
				To:      []string{"b@x.com"},
				Cc:      tt.cc,
				Bcc:     tt.bcc,
				Subject: "Test",
				Body:    "Hello",
			}

			encoded, err := msg.Encode()
			require.NoError(t, err)

			parsed := decodeEnvelope(t, encoded.Raw)
			assert.Equal(t, tt.wantCc, parsed.Header.Get("Cc"))
			assert.Equal(t, tt.wantBcc, parsed.Header.Get("Bcc"))
		})
	}
}

func TestEncodeRequiresRecipient(t *testing.T) {
	msg := &Message{
		From:    "a@x.com",
		Subject: "Test",
		Body:    "Hello",
	}

	_, err := msg.Encode()
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestEncodeWithAttachments(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.txt")
	logo := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(report, []byte("quarterly numbers"), 0o600))
	require.NoError(t, os.WriteFile(logo, []byte{0x89, 0x50, 0x4e, 0x47}, 0o600))

	msg := &Message{
		From:        "a@x.com",
		To:          []string{"b@x.com"},
		Subject:     "Files",
		Body:        "see attached",
		Attachments: []string{report, logo},
	}

	encoded, err := msg.Encode()
	require.NoError(t, err)

	parsed := decodeEnvelope(t, encoded.Raw)
	parts := readParts(t, parsed)
	require.Len(t, parts, 3, "one body part plus one part per attachment")

	wantNames := []string{"report.txt", "logo.png"}
	for i, part := range parts[1:] {
		disposition := part.header.Get("Content-Disposition")
		assert.Contains(t, disposition, "attachment")
		assert.Contains(t, disposition, wantNames[i])
		assert.Equal(t, "base64", part.header.Get("Content-Transfer-Encoding"))
	}

	assert.Contains(t, parts[1].header.Get("Content-Type"), "text/plain")
	assert.Contains(t, parts[2].header.Get("Content-Type"), "image/png")
	assert.Equal(t, []byte("quarterly numbers"), decodeBase64Part(t, parts[1].body))
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, decodeBase64Part(t, parts[2].body))
}

func TestEncodeMissingAttachmentFails(t *testing.T) {
	msg := &Message{
		From:        "a@x.com",
		To:          []string{"b@x.com"},
		Subject:     "Files",
		Body:        "see attached",
		Attachments: []string{"/does/not/exist.bin"},
	}

	_, err := msg.Encode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/does/not/exist.bin")
}

func TestEncodeRFC2047(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain ascii unchanged",
			input: "Status update",
			want:  "Status update",
		},
		{
			name:  "empty unchanged",
			input: "",
			want:  "",
		},
		{
			name:  "umlauts encoded",
			input: "Grüße",
			want:  mime.BEncoding.Encode("UTF-8", "Grüße"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeRFC2047(tt.input))
		})
	}
}
