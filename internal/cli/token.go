package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/probegrid/probegrid/internal/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint access tokens",
	}

	cmd.AddCommand(newTokenMintCmd())

	return cmd
}

// Minting requires the server's signing secret, so this is an operator tool
// for bootstrapping tenants, not an end-user login.
func newTokenMintCmd() *cobra.Command {
	var (
		tenantID int64
		role     string
		name     string
		secret   string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a signed access token for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret is required (the server's JWT_SECRET)")
			}

			token, err := auth.MintToken(tenantID, role, name, secret, ttl)
			if err != nil {
				return fmt.Errorf("failed to mint token: %w", err)
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&tenantID, "tenant", 0, "tenant ID the token is scoped to")
	cmd.Flags().StringVar(&role, "role", "viewer", "role: viewer, operator, admin")
	cmd.Flags().StringVar(&name, "name", "", "actor display name")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
