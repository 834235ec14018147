package mailroom

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// extractEMLAttachments parses an RFC 5322 message and writes its PDF
// attachments into destDir. Returns the written file paths.
func extractEMLAttachments(emlPath, destDir string) ([]string, error) {
	f, err := os.Open(emlPath)
	if err != nil {
		return nil, eris.Wrapf(err, "mailroom: open message %s", emlPath)
	}
	defer f.Close() //nolint:errcheck

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return nil, eris.Wrapf(err, "mailroom: parse message %s", emlPath)
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		return nil, eris.Wrapf(err, "mailroom: parse content type of %s", emlPath)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		// A message without parts carries no attachments.
		return nil, nil
	}

	return walkParts(multipart.NewReader(msg.Body, params["boundary"]), destDir)
}

// walkParts descends through the MIME tree collecting PDF attachments.
func walkParts(mr *multipart.Reader, destDir string) ([]string, error) {
	var staged []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return staged, nil
		}
		if err != nil {
			return staged, eris.Wrap(err, "mailroom: read mime part")
		}

		mediaType, params, ctErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if ctErr != nil {
			continue
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			nested, nErr := walkParts(multipart.NewReader(part, params["boundary"]), destDir)
			staged = append(staged, nested...)
			if nErr != nil {
				return staged, nErr
			}
			continue
		}

		name := part.FileName()
		if !isPDFName(name) && mediaType != "application/pdf" {
			continue
		}
		if name == "" {
			name = "attachment.pdf"
		}

		data, rErr := decodePart(part)
		if rErr != nil {
			return staged, rErr
		}

		path, wErr := writeUnique(destDir, name, data)
		if wErr != nil {
			return staged, wErr
		}
		staged = append(staged, path)
	}
}

// decodePart reads a part body, honoring base64 transfer encoding. Mail
// clients encode PDF attachments as base64 almost without exception.
func decodePart(part *multipart.Part) ([]byte, error) {
	var r io.Reader = part
	if strings.EqualFold(part.Header.Get("Content-Transfer-Encoding"), "base64") {
		r = base64.NewDecoder(base64.StdEncoding, newLineStripper(part))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "mailroom: decode attachment")
	}
	return data, nil
}

// lineStripper removes CR/LF so the base64 decoder sees a continuous stream.
type lineStripper struct {
	r io.Reader
}

func newLineStripper(r io.Reader) io.Reader {
	return &lineStripper{r: r}
}

func (ls *lineStripper) Read(p []byte) (int, error) {
	buf := make([]byte, len(p))
	n, err := ls.r.Read(buf)

	out := 0
	for _, b := range buf[:n] {
		if b == '\r' || b == '\n' {
			continue
		}
		p[out] = b
		out++
	}

	if out == 0 && err == nil && n > 0 {
		// Chunk was all line breaks; ask again.
		return ls.Read(p)
	}
	return out, err
}
