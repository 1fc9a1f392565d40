package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// GmailClient builds an HTTP client allowed to send mail as the account in tokenFile.
// The token has to be created once with GmailAuthURL / SaveGmailToken; the server never prompts.
func GmailClient(ctx context.Context, credentialsFile, tokenFile string) (*http.Client, error) {
	config, err := gmailConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read gmail token %s: %w", tokenFile, err)
	}
	return config.Client(ctx, tok), nil
}

// GmailAuthURL returns the consent link for the one-time token setup.
func GmailAuthURL(credentialsFile string) (string, error) {
	config, err := gmailConfig(credentialsFile)
	if err != nil {
		return "", err
	}
	return config.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// SaveGmailToken exchanges authCode and writes the token to tokenFile.
func SaveGmailToken(ctx context.Context, credentialsFile, tokenFile, authCode string) error {
	config, err := gmailConfig(credentialsFile)
	if err != nil {
		return err
	}
	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("exchange gmail auth code: %w", err)
	}
	return saveToken(tokenFile, tok)
}

func gmailConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}
	return config, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
