package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *fakeMailer) messages() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmailMessage(nil), m.sent...)
}

func TestSendAsyncRendersTemplate(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewEmailService(mailer, "https://campus.test/")

	svc.SendAsync("ada@campus.edu", "Ada <3", "Hello", "Welcome", "Your job was approved", "/jobs/1")
	svc.Wait()

	sent := mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@campus.edu", sent[0].To)
	assert.Contains(t, sent[0].HTML, "https://campus.test/jobs/1")
	assert.Contains(t, sent[0].HTML, "Ada &lt;3")
}

func TestSendAsyncSwallowsErrors(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc := NewEmailService(mailer, "")

	svc.SendAsync("ada@campus.edu", "Ada", "s", "h", "b", "")
	svc.SendAsync("", "nobody", "s", "h", "b", "")
	svc.Wait()

	assert.Len(t, mailer.messages(), 1)
}

func TestResendMailer(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := &ResendMailer{APIKey: "re_key", From: "CampusHire <a@b.c>", BaseURL: srv.URL, HTTP: srv.Client()}
	require.NoError(t, m.Send(context.Background(), EmailMessage{To: "x@campus.edu", Subject: "Hi", HTML: "<p>hi</p>"}))
	assert.Equal(t, []string{"x@campus.edu"}, got.To)
	assert.Equal(t, "Hi", got.Subject)
}

func TestResendMailerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	m := &ResendMailer{APIKey: "k", BaseURL: srv.URL, HTTP: srv.Client()}
	assert.Error(t, m.Send(context.Background(), EmailMessage{To: "x@campus.edu"}))
}

func TestRFC822KeepsUserTextOutOfHeaders(t *testing.T) {
	raw := string(rfc822("CampusHire <noreply@campus.test>", EmailMessage{
		To:      "owner@campus.edu\r\nCc: other@evil.test",
		Subject: "New application for Intern\r\nBcc: victim@evil.test",
		HTML:    "<p>hi</p>",
	}))

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.Equal(t, "<p>hi</p>", body)
	lines := strings.Split(head, "\r\n")
	assert.Len(t, lines, 5)
	for _, line := range lines {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
		assert.False(t, strings.HasPrefix(line, "Cc:"), line)
	}

	plain := string(rfc822("a@b.test", EmailMessage{To: "c@d.test", Subject: "Your job was approved"}))
	assert.Contains(t, plain, "\r\nSubject: Your job was approved\r\n")
}
