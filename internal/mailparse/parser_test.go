package mailparse

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-imap"
)

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "Plain ASCII",
			input:    "Hello World",
			expected: "Hello World",
			wantErr:  false,
		},
		{
			name:     "UTF-8 encoded",
			input:    "=?UTF-8?Q?Important_:_comment_mettre_=C3=A0_jour?=",
			expected: "Important : comment mettre à jour",
			wantErr:  false,
		},
		{
			name:     "ISO-8859-1 encoded",
			input:    "=?ISO-8859-1?Q?Caf=E9?=",
			expected: "Café",
			wantErr:  false,
		},
		{
			name:     "Base64 encoded",
			input:    "=?UTF-8?B?SGVsbG8gV29ybGQ=?=",
			expected: "Hello World",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeHeader(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeHeader() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("DecodeHeader() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExtractEmailAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple email",
			input:    "alice@example.com",
			expected: "alice@example.com",
		},
		{
			name:     "Email with name",
			input:    "Alice <alice@example.com>",
			expected: "alice@example.com",
		},
		{
			name:     "Email with quotes",
			input:    `"Alice A." <alice@example.com>`,
			expected: "alice@example.com",
		},
		{
			name:     "No email",
			input:    "Just some text",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractEmailAddress(tt.input)
			if got != tt.expected {
				t.Errorf("extractEmailAddress() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseFromHeader(t *testing.T) {
	rawHeader := "From: \"Alice A.\" <alice@example.com>\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: =?UTF-8?B?SGVsbG8gV29ybGQ=?=\r\n" +
		"Date: Mon, 02 Jan 2006 15:04:05 -0700\r\n" +
		"\r\n"

	date := time.Date(2006, time.January, 2, 15, 4, 5, 0, time.UTC)
	// fetch responses come back keyed without the Peek marker, so the
	// fixture stores the header under the Peek-less section name
	responseSection := &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Specifier: imap.HeaderSpecifier},
	}
	msg := &imap.Message{
		Uid:          103,
		InternalDate: date,
		Body: map[*imap.BodySectionName]imap.Literal{
			responseSection: bytes.NewBufferString(rawHeader),
		},
	}

	email, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if email.UID != 103 {
		t.Errorf("Expected UID 103, got %d", email.UID)
	}
	if email.From != "alice@example.com" {
		t.Errorf("Expected from 'alice@example.com', got '%s'", email.From)
	}
	if email.Subject != "Hello World" {
		t.Errorf("Expected subject 'Hello World', got '%s'", email.Subject)
	}
	if !email.InternalDate.Equal(date) {
		t.Errorf("Expected internal date %v, got %v", date, email.InternalDate)
	}
	if email.TraceID == "" {
		t.Error("Expected a trace id to be assigned")
	}
}

func TestParseEnvelopeFallback(t *testing.T) {
	msg := &imap.Message{
		Uid: 7,
		Envelope: &imap.Envelope{
			Subject: "Plain subject",
			From: []*imap.Address{
				{PersonalName: "Bob", MailboxName: "bob", HostName: "example.com"},
			},
		},
	}

	email, err := Parse(msg)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if email.Subject != "Plain subject" {
		t.Errorf("Expected subject 'Plain subject', got '%s'", email.Subject)
	}
	if email.From != "bob@example.com" {
		t.Errorf("Expected from 'bob@example.com', got '%s'", email.From)
	}
}

func TestParseNilMessage(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Error("Parse(nil) expected error, got nil")
	}
}
