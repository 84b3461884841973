package filter

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	return msg
}

func TestExtractPartsPlainText(t *testing.T) {
	msg := parseMessage(t, `From: billing@netflix.com
To: user@example.com
Subject: Renewal

Your subscription renews on 2026-09-01.
`)

	text, html, err := ExtractParts(msg)
	require.NoError(t, err)
	assert.Contains(t, text, "Your subscription renews")
	assert.Empty(t, html)
}

func TestExtractPartsSinglePartHTML(t *testing.T) {
	msg := parseMessage(t, `From: billing@netflix.com
To: user@example.com
Subject: Renewal
Content-Type: text/html; charset=utf-8

<p>Your subscription renews.</p>
`)

	text, html, err := ExtractParts(msg)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Contains(t, html, "<p>Your subscription renews.</p>")
}

func TestExtractPartsMultipartAlternative(t *testing.T) {
	msg := parseMessage(t, `From: billing@netflix.com
To: user@example.com
Subject: =?UTF-8?B?UMWZZWRwbGF0bsOp?=
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="BOUNDARY"

--BOUNDARY
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: quoted-printable

Va=C5=A1e p=C5=99edplatn=C3=A9 bylo obnoveno.
--BOUNDARY
Content-Type: text/html; charset=utf-8
Content-Transfer-Encoding: base64

PGI+cHJlZHBsYXRuZTwvYj4=
--BOUNDARY--
`)

	text, html, err := ExtractParts(msg)
	require.NoError(t, err)
	assert.Contains(t, text, "Vaše předplatné bylo obnoveno.")
	assert.Contains(t, html, "<b>predplatne</b>")
}

func TestExtractPartsNestedMultipartSkipsAttachments(t *testing.T) {
	msg := parseMessage(t, `From: statements@kb.cz
To: user@example.com
Subject: Statement
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="OUTER"

--OUTER
Content-Type: multipart/alternative; boundary="INNER"

--INNER
Content-Type: text/plain; charset=utf-8

Your monthly account statement is attached.
--INNER--
--OUTER
Content-Type: text/plain; name="log.txt"
Content-Disposition: attachment; filename="log.txt"

attached log content
--OUTER--
`)

	text, html, err := ExtractParts(msg)
	require.NoError(t, err)
	assert.Contains(t, text, "Your monthly account statement is attached.")
	assert.NotContains(t, text, "attached log content")
	assert.Empty(t, html)
}

func TestDecodeHeader(t *testing.T) {
	assert.Equal(t, "Předplatné", decodeHeader("=?UTF-8?B?UMWZZWRwbGF0bsOp?="))
	assert.Equal(t, "Plain subject", decodeHeader("Plain subject"))
}
