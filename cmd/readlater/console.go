package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/readlater/pkg/bot"
	"github.com/unowned-ai/readlater/pkg/console"
	"github.com/unowned-ai/readlater/pkg/session"
)

var consoleOwner int64

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the bot in the terminal",
	Long: `Runs the bot conversation against the local database in a terminal UI.
Messages are saved for the owner given with --owner, so the same collection
can be used from Telegram and from the console.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if consoleOwner == 0 {
			return errors.New("--owner is required")
		}

		store, dbConn, err := openStore()
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		// Logs would draw over the UI, so the dispatcher stays silent here.
		d := bot.New(store, session.NewMemoryStore(), bot.WithPageSize(cfg.Pagination.PageSize))
		return console.Run(d, consoleOwner)
	},
}

func initConsoleCmd() {
	consoleCmd.Flags().Int64Var(&consoleOwner, "owner", 0, "Telegram user id whose collection to use")
}
