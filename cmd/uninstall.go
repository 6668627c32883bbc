package cmd

import (
	"fmt"
	"ftpsched/internal/autostart"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the login autostart entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		as := autostart.New()
		installed, err := as.IsInstalled()
		if err != nil {
			return err
		}
		if !installed {
			fmt.Println("autostart is not installed")
			return nil
		}

		if err := as.Uninstall(); err != nil {
			return err
		}

		fmt.Println("ftpsched daemon autostart removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
