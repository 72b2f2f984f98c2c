package cmd

import (
	"fmt"

	"github.com/brogergvhs/noveld/internal/config"

	"github.com/spf13/cobra"
)

var configRenameCmd = &cobra.Command{
	Use:   "rename <old_label> <new_label>",
	Short: "Rename an existing labeled config (<old_label> <new_label>)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldLabel, newLabel := args[0], args[1]
		if oldLabel == config.DefaultLabel {
			return fmt.Errorf("the %s config cannot be renamed", config.DefaultLabel)
		}

		if err := config.RenameConfig(oldLabel, newLabel); err != nil {
			return err
		}
		fmt.Printf("Renamed config %q -> %q\n", oldLabel, newLabel)

		if active, _ := config.CurrentLabel(); active == newLabel {
			fmt.Println("Active config follows the new label.")
		}

		return nil
	},
}

func init() {
	configCmd.AddCommand(configRenameCmd)
}
