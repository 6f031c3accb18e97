package mailparse

import (
	"fmt"
	"mime"
	"regexp"

	"imap-push-notifier/internal/models"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// HeaderSection returns the body section requested when fetching message
// headers. Peek avoids marking the watched message as seen.
func HeaderSection() *imap.BodySectionName {
	return &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Specifier: imap.HeaderSpecifier},
		Peek:         true,
	}
}

// Parse normalizes a fetched message into an Email. Subject and sender come
// from the raw header when available, with the envelope as fallback; both are
// optional enrichment, so a message with neither still parses.
func Parse(msg *imap.Message) (*models.Email, error) {
	if msg == nil {
		return nil, fmt.Errorf("no message")
	}

	email := &models.Email{
		UID:          msg.Uid,
		InternalDate: msg.InternalDate,
		TraceID:      uuid.New().String(),
	}

	if r := msg.GetBody(HeaderSection()); r != nil {
		if mr, err := mail.CreateReader(r); err == nil {
			header := mr.Header
			email.From = extractEmailAddress(header.Get("From"))
			if decoded, err := DecodeHeader(header.Get("Subject")); err == nil {
				email.Subject = decoded
			}
		}
	}

	if msg.Envelope != nil {
		if email.Subject == "" {
			if decoded, err := DecodeHeader(msg.Envelope.Subject); err == nil {
				email.Subject = decoded
			}
		}
		if email.From == "" && len(msg.Envelope.From) > 0 {
			from := msg.Envelope.From[0]
			email.From = from.MailboxName + "@" + from.HostName
		}
	}

	return email, nil
}

// Simple regex to extract email address from "From" header, which may contain name and email
func extractEmailAddress(fromHeader string) string {
	re := regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	return re.FindString(fromHeader)
}

// DecodeHeader decodes MIME-encoded headers (e.g., "=?UTF-8?B?...?=") to plain text
func DecodeHeader(encoded string) (string, error) {
	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(encoded)
	if err != nil {
		return "", err
	}
	return decoded, nil
}
