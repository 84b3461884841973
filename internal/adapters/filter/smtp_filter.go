package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/matej/doc-triage/internal/core"
	"go.uber.org/zap"
)

// Headers names the classification headers stamped onto relayed mail
type Headers struct {
	Class    string
	Score    string
	Level    string
	Detector string
}

// SMTPFilter implements a Postfix content filter speaking SMTP on both sides
type SMTPFilter struct {
	service        *core.ClassificationService
	logger         *zap.Logger
	listenAddr     string
	relayAddr      string
	processTimeout time.Duration
	headers        Headers
	server         *smtp.Server
}

// NewSMTPFilter creates a new SMTP filter
func NewSMTPFilter(
	service *core.ClassificationService,
	logger *zap.Logger,
	listenAddr string,
	relayAddr string,
	processTimeout time.Duration,
	headers Headers,
) *SMTPFilter {
	return &SMTPFilter{
		service:        service,
		logger:         logger,
		listenAddr:     listenAddr,
		relayAddr:      relayAddr,
		processTimeout: processTimeout,
		headers:        headers,
	}
}

// Start starts the SMTP filter service
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP filter service
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail classifies an email directly, bypassing the SMTP transport.
// This is mainly used for testing or direct API calls.
func (f *SMTPFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.ClassificationResult, error) {
	return f.service.Classify(ctx, email)
}

// relay sends the stamped message to the upstream MTA
func (f *SMTPFilter) relay(sender string, recipients []string, emailData []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", f.relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			// Continue with other recipients even if one fails
		} else {
			recipientOK = true
		}
	}

	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
		// Not returning an error here as the email has already been sent
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the message, stamps the verdict headers and relays it
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	email, err := EmailFromMessage(msg, s.sender, s.recipients)
	if err != nil {
		s.filter.logger.Warn("Failed to extract message parts", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.filter.processTimeout)
	defer cancel()

	result, classifyErr := s.filter.service.Classify(ctx, email)
	if classifyErr != nil && result == nil {
		s.filter.logger.Error("Failed to classify email",
			zap.Error(classifyErr),
			zap.String("sender", email.From))

		result = &core.ClassificationResult{
			DocumentType: core.DocTypeUnclassified,
			Detector:     "error",
			MaxScore:     core.MaxPossibleScore,
			Level:        core.ConfidenceLow,
			Explanation:  fmt.Sprintf("error during classification: %v", classifyErr),
			AnalyzedAt:   time.Now(),
		}
	} else if classifyErr != nil {
		// The verdict is valid, only the evidence write failed
		s.filter.logger.Error("Evidence write failed, relaying with verdict",
			zap.Error(classifyErr),
			zap.String("sender", email.From))
	}

	// Stamp the verdict headers, then the original headers unchanged
	var stamped bytes.Buffer
	fmt.Fprintf(&stamped, "%s: %s\r\n", s.filter.headers.Class, result.DocumentType)
	fmt.Fprintf(&stamped, "%s: %d/%d\r\n", s.filter.headers.Score, result.Score, result.MaxScore)
	fmt.Fprintf(&stamped, "%s: %s\r\n", s.filter.headers.Level, result.Level)
	fmt.Fprintf(&stamped, "%s: %s\r\n", s.filter.headers.Detector, result.Detector)
	if classifyErr != nil && result.Detector == "error" {
		fmt.Fprintf(&stamped, "X-Document-Error: %s\r\n", classifyErr.Error())
	}

	for key, values := range msg.Header {
		for _, value := range values {
			fmt.Fprintf(&stamped, "%s: %s\r\n", key, value)
		}
	}
	fmt.Fprintf(&stamped, "\r\n")

	// Splice in the original body bytes so MIME parts and attachments survive
	if bodyStart := bytes.Index(rawData, []byte("\r\n\r\n")); bodyStart != -1 {
		stamped.Write(rawData[bodyStart+4:])
	} else if bodyStart := bytes.Index(rawData, []byte("\n\n")); bodyStart != -1 {
		stamped.Write(rawData[bodyStart+2:])
	}

	if err := s.filter.relay(s.sender, s.recipients, stamped.Bytes()); err != nil {
		s.filter.logger.Error("Failed to relay email",
			zap.Error(err),
			zap.String("sender", email.From))
		return err
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", email.From),
		zap.String("document_type", result.DocumentType),
		zap.String("detector", result.Detector),
		zap.String("level", string(result.Level)))

	return nil
}

// Logout handles SMTP logout (not needed for the filter)
func (s *smtpSession) Logout() error {
	return nil
}
