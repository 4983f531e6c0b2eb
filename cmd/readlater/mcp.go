package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	readlater "github.com/unowned-ai/readlater"
	"github.com/unowned-ai/readlater/pkg/bot"
	"github.com/unowned-ai/readlater/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the ReadLater MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes saved materials,
tags and statistics as MCP tools via STDIO. Every tool takes the owner's
Telegram user id.

Example:
  readlater mcp
  readlater mcp --db /path/to/readlater.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, dbConn, err := openStore()
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		srv := mcp.NewReadLaterMCPServer(bot.NewRetriever(store, cfg.Pagination.PageSize), readlater.Version)

		// Log to stderr so we don't contaminate the JSON-RPC stream on stdout.
		fmt.Fprintf(os.Stderr, "ReadLater MCP server started. DB: %s (WAL: %t, Sync: %s)\n", cfg.Database.Path, cfg.Database.WAL, cfg.Database.Sync)
		fmt.Fprintln(os.Stderr, "Available tools: ping, get_last_item, get_random_unread, list_items, list_items_by_tags, list_tags, set_item_status, delete_item, get_statistics")
		fmt.Fprintln(os.Stderr, "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")

		return srv.Start()
	},
}
