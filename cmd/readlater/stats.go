package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/readlater/pkg/bot"
	"github.com/unowned-ai/readlater/pkg/content"
)

var statsOwner int64

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reading statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsOwner == 0 {
			return errors.New("--owner is required")
		}
		return withRetriever(func(r *bot.Retriever) error {
			s, err := r.Statistics(cmd.Context(), statsOwner)
			if err != nil {
				return fmt.Errorf("failed to compute statistics: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total:           %d\n", s.Total)
			fmt.Fprintf(out, "Unread:          %d\n", s.Unread)
			fmt.Fprintf(out, "Read:            %d\n", s.Read)
			fmt.Fprintf(out, "Read in 7 days:  %d\n", s.ReadLastWeek)
			fmt.Fprintf(out, "Read in 30 days: %d\n", s.ReadLastMonth)

			types := make([]content.Type, 0, len(s.ByType))
			for t := range s.ByType {
				types = append(types, t)
			}
			sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
			for _, t := range types {
				fmt.Fprintf(out, "  %-14s %d\n", string(t)+":", s.ByType[t])
			}
			return nil
		})
	},
}

func initStatsCmd() {
	statsCmd.Flags().Int64Var(&statsOwner, "owner", 0, "Telegram user id owning the collection")
}
