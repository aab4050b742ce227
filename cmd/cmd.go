package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/backupctl/backupctl/cmd/backup"
	"github.com/backupctl/backupctl/cmd/check"
	"github.com/backupctl/backupctl/cmd/del"
	"github.com/backupctl/backupctl/cmd/restore"
	"github.com/backupctl/backupctl/cmd/root"
	"github.com/backupctl/backupctl/cmd/verify"
	"github.com/backupctl/backupctl/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version of backupctl",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.String())
		},
	}
}

func Execute() {
	var opt root.Options

	cmd := root.NewCmd(&opt)

	cmd.AddCommand(backup.NewCmd(&opt))
	cmd.AddCommand(del.NewCmd(&opt))
	cmd.AddCommand(restore.NewCmd(&opt))
	cmd.AddCommand(verify.NewBackupCmd(&opt))
	cmd.AddCommand(verify.NewRestoreCmd(&opt))
	cmd.AddCommand(check.NewCmd(&opt))
	cmd.AddCommand(newVersionCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln(err)
		os.Exit(1)
	}
}
