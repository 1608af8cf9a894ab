package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qashware/note-wallet/internal/ipc"
)

var clientCmd = &cobra.Command{
	Use:   "client <command> [args...]",
	Short: "Send a command to a running wallet daemon",
	Long: `Sends one IPC command to the daemon's control socket and prints the
result. Commands: submit-batch, claim-note, recall-note, recall-batch,
list-consumable, retry-registrations, rotate-log, exit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient()
		if err != nil {
			return fmt.Errorf("failed to connect to wallet daemon: %v", err)
		}
		defer client.Close()

		result, err := client.SendCommand(args[0], args[1:])
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Println("ok")
			return nil
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
