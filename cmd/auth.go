package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"beacon/internal/google"
)

func newAuthCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize beacon to read a Gmail account",
		Long: `Run the Google OAuth flow for the gmail provider.

Requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET in the environment.
Prints an authorization URL, then reads the authorization code from stdin
and caches the token for the given account. Tokens refresh automatically
afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if google.HasTokenForAccount(account) {
				fmt.Printf("Account %q is already authorized. Continuing will replace the cached token.\n\n", account)
			}

			authURL, err := google.GetAuthURL()
			if err != nil {
				return err
			}

			fmt.Printf("Visit this URL in your browser and grant read access:\n\n  %s\n\n", authURL)
			fmt.Print("Paste the authorization code: ")

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("no authorization code provided")
			}

			if err := google.SaveToken(context.Background(), account, code); err != nil {
				return err
			}

			fmt.Printf("Token saved for account %q.\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Account name to store the token under")

	return cmd
}
