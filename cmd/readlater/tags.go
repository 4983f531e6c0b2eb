package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/readlater/pkg/bot"
)

var tagsOwner int64

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Inspect tags",
}

var listTagsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the owner's tags sorted by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tagsOwner == 0 {
			return errors.New("--owner is required")
		}
		return withRetriever(func(r *bot.Retriever) error {
			tags, err := r.Tags(cmd.Context(), tagsOwner)
			if err != nil {
				return fmt.Errorf("failed to list tags: %w", err)
			}
			if len(tags) == 0 {
				cmd.Println("No tags yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED")
			for _, tag := range tags {
				fmt.Fprintf(w, "%d\t%s\t%s\n", tag.ID, tag.Name, formatTime(tag.CreatedAt))
			}
			return w.Flush()
		})
	},
}

func initTagsCmd() {
	listTagsCmd.Flags().Int64Var(&tagsOwner, "owner", 0, "Telegram user id owning the tags")
	tagsCmd.AddCommand(listTagsCmd)
}
