package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/grocerytracker/internal/store"
)

func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage access keys",
	}
	cmd.AddCommand(newKeysGenerateCommand(rootOpts))
	cmd.AddCommand(newKeysListCommand(rootOpts))
	return cmd
}

func newKeysGenerateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Create a new access key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			k, err := store.NewAccessKeyStore(db).Generate(cmd.Context(), nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), k.Value)
			return nil
		},
	}
}

func newKeysListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List access keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			keys, err := store.NewAccessKeyStore(db).List(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tCREATED BY\tCREATED AT")
			for _, k := range keys {
				by := "-"
				if k.CreatedBy != nil {
					by = fmt.Sprint(*k.CreatedBy)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Value, by, k.CreatedAt.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}
