package cmd

import (
	"fmt"

	"github.com/brogergvhs/noveld/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var configAddCmd = &cobra.Command{
	Use:   "add [label] [file]",
	Short: "Create a new config, or import one from a YAML file",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string

		if len(args) > 0 {
			label = args[0]
		} else {
			prompt := promptui.Prompt{Label: "Label for new config"}

			var err error
			label, err = prompt.Run()
			if isAbort(err) {
				fmt.Println("Aborted.")
				return nil
			}
			if err != nil {
				return err
			}
		}

		if len(args) == 2 {
			if err := config.AddConfig(label, args[1]); err != nil {
				return err
			}
			fmt.Printf("Imported %s as config %q\n", args[1], label)
			return nil
		}

		path, err := config.CreateEmptyConfig(label)
		if err != nil {
			return err
		}

		fmt.Printf("Created new config: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configAddCmd)
}
