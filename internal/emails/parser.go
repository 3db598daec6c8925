// Package emails parses raw .eml files into the tuples the triage pipeline
// ingests. Only the plain-text body is extracted; everything downstream is
// owned by the pipeline.
package emails

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// InboundEmail is one parsed inbound message ready for triage
type InboundEmail struct {
	Sender     string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// ParseEMLFile parses a single EML file
func ParseEMLFile(filename string) (*InboundEmail, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open EML file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Printf("Warning: Error closing file: %v\n", err)
		}
	}()

	msg, err := mail.ReadMessage(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EML message: %w", err)
	}

	sender := msg.Header.Get("From")
	if addr, err := mail.ParseAddress(sender); err == nil {
		sender = addr.Address
	}

	subject := decodeHeader(msg.Header.Get("Subject"))

	receivedAt := time.Now().UTC()
	if date, err := msg.Header.Date(); err == nil {
		receivedAt = date
	}

	body, err := extractTextBody(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract body: %w", err)
	}

	return &InboundEmail{
		Sender:     sender,
		Subject:    subject,
		Body:       strings.TrimSpace(body),
		ReceivedAt: receivedAt,
	}, nil
}

// ParseDirectory parses every .eml file under the given directory
func ParseDirectory(dir string) ([]InboundEmail, error) {
	var emails []InboundEmail

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		// Skip lost+found directory (common in mounted volumes)
		if info.IsDir() && info.Name() == "lost+found" {
			return filepath.SkipDir
		}
		if info.IsDir() || !strings.HasSuffix(strings.ToLower(info.Name()), ".eml") {
			return nil
		}

		parsed, err := ParseEMLFile(path)
		if err != nil {
			fmt.Printf("Warning: Failed to parse %s: %v\n", path, err)
			return nil
		}
		emails = append(emails, *parsed)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk email directory: %w", err)
	}

	return emails, nil
}

// extractTextBody pulls the text/plain content out of a message, descending
// into multipart bodies and decoding transfer encodings
func extractTextBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractFromMultipart(msg.Body, params["boundary"])
	}

	return decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
}

// extractFromMultipart returns the first text/plain part of a multipart body
func extractFromMultipart(body io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", fmt.Errorf("multipart message without boundary")
	}

	reader := multipart.NewReader(body, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read multipart body: %w", err)
		}

		partType, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			continue
		}

		if strings.HasPrefix(partType, "multipart/") {
			if nested, err := extractFromMultipart(part, params["boundary"]); err == nil && nested != "" {
				return nested, nil
			}
			continue
		}

		if partType == "text/plain" {
			return decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
		}
	}

	return "", fmt.Errorf("no text/plain part found")
}

// decodeBody reads a body applying the content transfer encoding
func decodeBody(body io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(data), nil
}

// decodeHeader decodes RFC 2047 encoded-word headers
func decodeHeader(value string) string {
	decoder := mime.WordDecoder{}
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
