package mailbox

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/emersion/go-imap/v2"
)

// sendHeaderLayout is the Date-header shape the engine consumes:
// "Weekday, DD Mon YYYY HH:MM:SS ±ZZZZ (ZoneName)".
const sendHeaderLayout = "Mon, 02 Jan 2006 15:04:05 -0700 (MST)"

// Message is one candidate email as handed to the engine: subject,
// send-timestamp text and the HTML payload.
type Message struct {
	UID      imap.UID
	From     string
	Subject  string
	SentAt   string // raw Date header text
	HTMLBody string
}

// fillFromRaw parses the RFC822 bytes, preferring header values over
// whatever the envelope carried, and extracts the HTML MIME part.
func (m *Message) fillFromRaw(raw []byte) {
	if len(raw) == 0 {
		return
	}
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		// Not MIME at all; treat the whole payload as the body.
		m.HTMLBody = string(raw)
		return
	}

	if s := strings.TrimSpace(msg.Header.Get("Subject")); s != "" {
		m.Subject = decodeRFC2047(s)
	}
	if d := strings.TrimSpace(msg.Header.Get("Date")); d != "" {
		m.SentAt = d
	}

	body, _ := io.ReadAll(io.LimitReader(msg.Body, 25<<20))
	_, htmlPart := extractMIMETextParts(msg.Header, body)
	if htmlPart == "" {
		htmlPart = string(body)
	}
	m.HTMLBody = htmlPart
}

func extractMIMETextParts(h mail.Header, body []byte) (plain, htmlPart string) {
	ct := h.Get("Content-Type")
	cte := strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding")))

	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return string(decodeTransferEncoding(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return string(decodeTransferEncoding(body, cte)), ""
		}
		mr := multipart.NewReader(bytes.NewReader(body), boundary)

		var bestPlain, bestHTML string
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			partCTE := strings.ToLower(strings.TrimSpace(p.Header.Get("Content-Transfer-Encoding")))
			pMedia, _, _ := mime.ParseMediaType(p.Header.Get("Content-Type"))
			pMedia = strings.ToLower(pMedia)

			b, _ := io.ReadAll(io.LimitReader(p, 20<<20))
			b = decodeTransferEncoding(b, partCTE)

			if strings.HasPrefix(pMedia, "multipart/") {
				pl, ht := extractMIMETextParts(mail.Header(p.Header), b)
				if len(pl) > len(bestPlain) {
					bestPlain = pl
				}
				if len(ht) > len(bestHTML) {
					bestHTML = ht
				}
				continue
			}

			switch {
			case strings.HasPrefix(pMedia, "text/plain"):
				if len(b) > len(bestPlain) {
					bestPlain = string(b)
				}
			case strings.HasPrefix(pMedia, "text/html"):
				if len(b) > len(bestHTML) {
					bestHTML = string(b)
				}
			}
		}
		return bestPlain, bestHTML
	}

	s := decodeTransferEncoding(body, cte)
	if strings.HasPrefix(mediaType, "text/html") {
		return "", string(s)
	}
	return string(s), ""
}

func decodeTransferEncoding(b []byte, cte string) []byte {
	switch cte {
	case "base64":
		dec := base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 6<<20))
		return out
	case "quoted-printable":
		dec := quotedprintable.NewReader(bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 6<<20))
		return out
	default:
		return b
	}
}

func decodeRFC2047(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	dec := new(mime.WordDecoder)
	out, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}
