package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/grocerytracker/internal/backup"
	"github.com/dukerupert/grocerytracker/internal/store"
)

func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Encrypted database backups",
	}
	cmd.AddCommand(newBackupRunCommand(rootOpts))
	cmd.AddCommand(newBackupListCommand(rootOpts))
	cmd.AddCommand(newBackupRestoreCommand(rootOpts))
	cmd.AddCommand(newBackupCleanupCommand(rootOpts))
	return cmd
}

// withManager opens the database and hands a backup manager to fn.
func withManager(opts *RootOptions, fn func(m *backup.Manager) error) error {
	db, err := opts.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(backup.NewManager(opts.cfg.Backup, db, store.NewBackupStore(db), opts.logger))
}

func newBackupRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Take a backup now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(opts, func(m *backup.Manager) error {
				b, err := m.RunNow(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "backup %d uploaded to %s (%d bytes)\n", b.ID, b.S3Key, b.SizeBytes)
				return nil
			})
		},
	}
}

func newBackupListCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(opts, func(m *backup.Manager) error {
				backups, err := m.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSTATUS\tSIZE\tCREATED AT\tKEY")
				for _, b := range backups {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", b.ID, b.Status, b.SizeBytes, b.CreatedAt.Format(time.DateTime), b.S3Key)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of backups to show")
	return cmd
}

func newBackupRestoreCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id> <dest-path>",
		Short: "Download and decrypt a backup into a new database file",
		Long: `Download a completed backup, decrypt it and write it to dest-path after
an integrity check. The configured database is left untouched; stop the
server and move the file into place to finish a restore.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid backup id %q", args[0])
			}
			return withManager(opts, func(m *backup.Manager) error {
				if err := m.Restore(cmd.Context(), id, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored backup %d to %s\n", id, args[1])
				return nil
			})
		},
	}
}

func newBackupCleanupCommand(opts *RootOptions) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete backups older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				days = opts.cfg.Backup.RetentionDays
			}
			return withManager(opts, func(m *backup.Manager) error {
				return m.Cleanup(cmd.Context(), days)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (defaults to the configured value)")
	return cmd
}
