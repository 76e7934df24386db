// Package chatlog turns exported chat text into discrete messages.
package chatlog

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/textnorm"
)

// Header line shapes:
//
//	1/1/24, 10:30 AM - Sender: Text
//	[1/1/2024, 10:30:15 PM] Sender: Text
//	01/01/2024, 22:30 – Sender: Text
var (
	datePart = `(\d{1,2}/\d{1,2}/\d{2,4})`
	timePart = `(\d{1,2}:\d{2}(?::\d{2})?(?:\s*(?:[AaPp]\.?\s?[Mm]\.?|ص|م))?)`

	headerPattern = regexp.MustCompile(`^\[?` + datePart + `,?\s+` + timePart + `\]?\s*[-–—]?\s*([^:]+?)\s*:(?:\s(.*)|$)`)
	// A timestamped line without "sender:" is always a system event.
	systemPattern = regexp.MustCompile(`^\[?` + datePart + `,?\s+` + timePart + `\]?\s*[-–—]\s*(.*)$`)
)

// Notice markers are matched case-insensitively.
var (
	bodyNoticeMarkers = []string{
		"<media omitted>",
		"media omitted",
		"image omitted",
		"video omitted",
		"audio omitted",
		"sticker omitted",
		"document omitted",
		"gif omitted",
		"<attached:",
		"تم استبعاد الوسائط",
		"end-to-end encrypted",
		"security code",
	}
	senderNoticeMarkers = []string{
		"messages and calls are end-to-end encrypted",
		" added ",
		"added you",
		" left ",
		" removed ",
		" joined using",
		"created group",
		"changed the subject",
		"changed this group's icon",
		"changed the group description",
		"أضاف",
		"تمت إضافتك",
		"غادر",
		"انضم",
		"أنشأ المجموعة",
	}
)

// Parse reads an export and returns its messages in order. Lines that do
// not look like a header are continuation text, so a malformed line never
// fails the whole export. The only error returned is a read error.
func Parse(r io.Reader) ([]model.RawMessage, error) {
	p := &parser{}
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			p.feed(line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return p.messages, err
		}
	}
	p.flush()
	return p.messages, nil
}

// ParseString parses an export already held in memory.
func ParseString(text string) []model.RawMessage {
	messages, _ := Parse(strings.NewReader(text))
	return messages
}

type parser struct {
	current  *model.RawMessage
	body     strings.Builder
	messages []model.RawMessage
	lineNo   int
}

func (p *parser) feed(raw string) {
	p.lineNo++
	line := strings.TrimRight(textnorm.StripInvisible(raw), "\r\n")

	if m := headerPattern.FindStringSubmatch(line); m != nil {
		sender := strings.TrimSpace(m[3])
		body := strings.TrimSpace(m[4])
		p.flush()
		if isNotice(sender, body) {
			return
		}
		p.current = &model.RawMessage{
			Timestamp:   m[1] + ", " + strings.TrimSpace(m[2]),
			SenderLabel: sender,
			Line:        p.lineNo,
		}
		p.body.WriteString(body)
		return
	}

	if systemPattern.MatchString(line) {
		p.flush()
		return
	}

	if strings.TrimSpace(line) == "" || p.current == nil {
		return
	}
	if p.body.Len() > 0 {
		p.body.WriteByte('\n')
	}
	p.body.WriteString(strings.TrimSpace(line))
}

func (p *parser) flush() {
	if p.current != nil {
		p.current.Body = strings.TrimSpace(p.body.String())
		p.messages = append(p.messages, *p.current)
	}
	p.current = nil
	p.body.Reset()
}

func isNotice(sender, body string) bool {
	b := strings.ToLower(body)
	for _, marker := range bodyNoticeMarkers {
		if strings.Contains(b, marker) {
			return true
		}
	}
	s := strings.ToLower(" " + sender + " ")
	for _, marker := range senderNoticeMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
