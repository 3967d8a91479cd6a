package main

import (
	"encoding/json"

	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/pkg/clock"
	"github.com/spf13/cobra"
)

// membersCommand maintains the band roster mirror the preference gate
// reads. The roster itself is owned by the band service; this is for
// seeding and repair.
func membersCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Inspect or edit the band membership mirror",
	}

	var inactive bool
	put := &cobra.Command{
		Use:   "put <band-id> <user-id>",
		Short: "Add or update a band member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStores(cmd.Context(), c.cfg, clock.New(), c.log)
			if err != nil {
				return err
			}
			defer st.close()
			return st.members.Put(cmd.Context(), &domain.BandMember{
				BandID:   args[0],
				UserID:   args[1],
				Active:   !inactive,
				JoinedAt: clock.New().Now(),
			})
		},
	}
	put.Flags().BoolVar(&inactive, "inactive", false, "store the member as inactive")

	list := &cobra.Command{
		Use:   "list <band-id>",
		Short: "List a band's members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStores(cmd.Context(), c.cfg, clock.New(), c.log)
			if err != nil {
				return err
			}
			defer st.close()
			members, err := st.members.ListByBand(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(members)
		},
	}

	cmd.AddCommand(put, list)
	return cmd
}
