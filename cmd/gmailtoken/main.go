// Command gmailtoken creates the token file the gmail mail provider sends with.
// Run it once; it prints a consent link and waits for the code.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/justsurfingit/campus-hire/internal/auth"
	"github.com/justsurfingit/campus-hire/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Only the email section matters here.
		log.Printf("Warning: %v", err)
		cfg = &config.Config{Email: config.EmailConfig{
			GmailCredentialsFile: "credential.json",
			GmailTokenFile:       "token.json",
		}}
	}
	creds, tokenFile := cfg.Email.GmailCredentialsFile, cfg.Email.GmailTokenFile

	url, err := auth.GmailAuthURL(creds)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Go to the following link in your browser then type the authorization code:\n%v\n", url)

	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		log.Fatal("Unable to read authorization code: ", err)
	}
	if err := auth.SaveGmailToken(context.Background(), creds, tokenFile, strings.TrimSpace(code)); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Saved credential file to: %s\n", tokenFile)
}
