package cmd

import (
	"fmt"
	"ftpsched/internal/autostart"
	"os"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Start the daemon at login",
	RunE: func(cmd *cobra.Command, args []string) error {
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		as := autostart.New()
		if installed, _ := as.IsInstalled(); installed {
			fmt.Println("autostart entry exists, replacing it")
		}

		if err := as.Install(execPath); err != nil {
			return err
		}

		fmt.Println("ftpsched daemon registered for autostart")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
