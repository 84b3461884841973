package filter

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/matej/doc-triage/internal/core"
)

const maxMultipartDepth = 8

// EmailFromMessage builds an Email from a parsed message, decoding MIME parts
// and encoded headers. The envelope sender and recipients, when known, take
// priority over the address headers. A body decode error is returned alongside
// whatever content was recovered.
func EmailFromMessage(msg *mail.Message, envelopeSender string, recipients []string) (*core.Email, error) {
	textContent, htmlContent, err := ExtractParts(msg)

	sender := envelopeSender
	if sender == "" {
		// Bounce messages have an empty envelope sender
		sender = msg.Header.Get("From")
	}
	if recipients == nil {
		for _, addr := range strings.Split(msg.Header.Get("To"), ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				recipients = append(recipients, addr)
			}
		}
	}

	return &core.Email{
		MessageID: strings.Trim(msg.Header.Get("Message-Id"), "<>"),
		From:      sender,
		To:        recipients,
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		Body:      textContent,
		HTMLBody:  htmlContent,
		Headers:   msg.Header,
	}, err
}

// ExtractParts pulls the text and HTML bodies out of an email message,
// walking nested multipart containers and decoding transfer encodings.
// Attachments are skipped.
func ExtractParts(msg *mail.Message) (string, string, error) {
	contentType := msg.Header.Get("Content-Type")
	encoding := msg.Header.Get("Content-Transfer-Encoding")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		body, err := decodeBody(msg.Body, encoding)
		if err != nil {
			return "", "", err
		}
		if strings.HasPrefix(mediaType, "text/html") {
			return "", body, nil
		}
		return body, "", nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		body, err := decodeBody(msg.Body, encoding)
		if err != nil {
			return "", "", err
		}
		return body, "", nil
	}

	var text, html bytes.Buffer
	if err := walkParts(multipart.NewReader(msg.Body, boundary), &text, &html, 0); err != nil {
		// Keep whatever was extracted before the malformed part
		if text.Len() == 0 && html.Len() == 0 {
			return "", "", err
		}
	}

	return text.String(), html.String(), nil
}

func walkParts(mr *multipart.Reader, text, html *bytes.Buffer, depth int) error {
	if depth > maxMultipartDepth {
		return nil
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		partType, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			partType = "text/plain"
		}

		if strings.HasPrefix(partType, "multipart/") {
			if boundary, ok := params["boundary"]; ok {
				if err := walkParts(multipart.NewReader(part, boundary), text, html, depth+1); err != nil {
					return err
				}
			}
			continue
		}

		if disposition, _, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition")); disposition == "attachment" {
			continue
		}

		switch {
		case strings.HasPrefix(partType, "text/plain"):
			body, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
			if err != nil {
				continue
			}
			text.WriteString(body)
			text.WriteString("\n")
		case strings.HasPrefix(partType, "text/html"):
			body, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
			if err != nil {
				continue
			}
			html.WriteString(body)
			html.WriteString("\n")
		}
	}
}

// decodeBody reads a body applying its Content-Transfer-Encoding.
func decodeBody(r io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeHeader decodes RFC 2047 encoded-words in a header value,
// falling back to the raw value when decoding fails.
func decodeHeader(value string) string {
	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
