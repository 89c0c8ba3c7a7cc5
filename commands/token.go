package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"airbnb-reconciler/utils"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		userID int
		role   string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin API token signed with API_SECRET.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lifespan := time.Duration(a.cfg.TokenHourLifespan) * time.Hour
			tok, err := utils.JwtGenerate([]byte(a.cfg.APISecret), userID, role, lifespan)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().IntVar(&userID, "user", 0, "operator id embedded in the token")
	cmd.Flags().StringVar(&role, "role", "admin", "operator role")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
