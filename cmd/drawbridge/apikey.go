package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rpggio/drawbridge/internal/domain/session"
)

var (
	apiKeyUser        string
	apiKeyDescription string
)

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys for the HTTP transport",
}

var apiKeyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an API key and print its token",
	Long: `Create an API key for a user. The token is printed once; only its hash
is stored. Without --user the key belongs to a newly generated user id.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := uuid.New()
		switch apiKeyUser {
		case "":
		case "local":
			userID = session.LocalUserID
		default:
			parsed, err := uuid.Parse(apiKeyUser)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			userID = parsed
		}

		a, err := openApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		token := newToken()
		if err := a.apiKeys.Add(cmd.Context(), token, userID, apiKeyDescription); err != nil {
			return fmt.Errorf("add api key: %w", err)
		}

		fmt.Println("user: ", userID)
		fmt.Println("token:", token)
		return nil
	},
}

func init() {
	apiKeyAddCmd.Flags().StringVar(&apiKeyUser, "user", "", `user id owning the key, or "local"`)
	apiKeyAddCmd.Flags().StringVar(&apiKeyDescription, "description", "", "note stored with the key")
	apiKeyCmd.AddCommand(apiKeyAddCmd)
}

// newToken returns a random bearer token.
func newToken() string {
	return "dbk_" + strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}
