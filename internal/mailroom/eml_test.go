package mailroom

import (
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "message.eml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestExtractEMLAttachments_Base64PDF(t *testing.T) {
	pdfData := []byte("%PDF-1.4\nfake content\n")
	encoded := base64.StdEncoding.EncodeToString(pdfData)

	eml := "From: orders@carrier.example\r\n" +
		"To: provisioning@example.com\r\n" +
		"Subject: order PON_ABC123\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"BOUND\"\r\n" +
		"\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"see attached\r\n" +
		"--BOUND\r\n" +
		"Content-Type: application/pdf; name=\"order.pdf\"\r\n" +
		"Content-Disposition: attachment; filename=\"order.pdf\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		encoded + "\r\n" +
		"--BOUND--\r\n"

	dest := t.TempDir()
	staged, err := extractEMLAttachments(writeEML(t, eml), dest)
	require.NoError(t, err)

	require.Len(t, staged, 1)
	assert.Equal(t, "order.pdf", filepath.Base(staged[0]))

	data, err := os.ReadFile(staged[0])
	require.NoError(t, err)
	assert.Equal(t, pdfData, data)
}

func TestExtractEMLAttachments_NonMultipart(t *testing.T) {
	eml := "From: a@example.com\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"no attachments here\r\n"

	staged, err := extractEMLAttachments(writeEML(t, eml), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestExtractEMLAttachments_SkipsNonPDFParts(t *testing.T) {
	eml := "From: a@example.com\r\n" +
		"Content-Type: multipart/mixed; boundary=\"BOUND\"\r\n" +
		"\r\n" +
		"--BOUND\r\n" +
		"Content-Type: image/png; name=\"logo.png\"\r\n" +
		"Content-Disposition: attachment; filename=\"logo.png\"\r\n" +
		"\r\n" +
		"not a pdf\r\n" +
		"--BOUND--\r\n"

	staged, err := extractEMLAttachments(writeEML(t, eml), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestLineStripper(t *testing.T) {
	r := newLineStripper(strings.NewReader("AAAA\r\nBBBB\r\nCCCC"))
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "AAAABBBBCCCC", string(out))
}
