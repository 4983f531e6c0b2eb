package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/readlater/pkg/bot"
	"github.com/unowned-ai/readlater/pkg/content"
)

var (
	ownerFlag    int64
	typeFlag     string
	statusFlag   string
	pageFlag     int
	tagIDsFlag   string
	relationFlag string
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Browse and manage saved materials",
	Long:  `Show, list, mark and delete the materials of one owner.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if ownerFlag == 0 {
			return errors.New("--owner is required")
		}
		return nil
	},
}

// withRetriever opens the store for the duration of fn.
func withRetriever(fn func(r *bot.Retriever) error) error {
	store, dbConn, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB(dbConn)
	return fn(bot.NewRetriever(store, cfg.Pagination.PageSize))
}

func parseTypeFlag() (content.Type, error) {
	return content.ParseType(strings.ToLower(typeFlag))
}

var lastItemCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the most recently saved material",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTypeFlag()
		if err != nil {
			return err
		}
		return withRetriever(func(r *bot.Retriever) error {
			item, err := r.Last(cmd.Context(), ownerFlag, content.Filter{Type: t})
			if err != nil {
				return fmt.Errorf("failed to get last item: %w", err)
			}
			if item == nil {
				cmd.Println("No saved materials.")
				return nil
			}
			printItem(cmd.OutOrStdout(), *item)
			return nil
		})
	},
}

var randomItemCmd = &cobra.Command{
	Use:   "random",
	Short: "Show a random unread material",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTypeFlag()
		if err != nil {
			return err
		}
		return withRetriever(func(r *bot.Retriever) error {
			item, err := r.RandomUnread(cmd.Context(), ownerFlag, t)
			if err != nil {
				return fmt.Errorf("failed to get a random unread item: %w", err)
			}
			if item == nil {
				cmd.Println("No unread materials.")
				return nil
			}
			printItem(cmd.OutOrStdout(), *item)
			return nil
		})
	},
}

var listItemsCmd = &cobra.Command{
	Use:   "list",
	Short: "List materials, unread first and newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTypeFlag()
		if err != nil {
			return err
		}
		f := content.Filter{Type: t}
		if statusFlag != "" {
			if f.Status, err = content.ParseStatus(statusFlag); err != nil {
				return err
			}
		}
		return withRetriever(func(r *bot.Retriever) error {
			p, err := r.List(cmd.Context(), ownerFlag, pageFlag, f)
			if err != nil {
				return fmt.Errorf("failed to list items: %w", err)
			}
			printPage(cmd, p)
			return nil
		})
	},
}

var listByTagsCmd = &cobra.Command{
	Use:   "bytags",
	Short: "List materials carrying all or any of the given tags",
	Example: `  readlater items bytags --owner 42 --tags 3,5
  readlater items bytags --owner 42 --tags 3,5 --relation or`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tagIDs, err := parseTagIDs(tagIDsFlag)
		if err != nil {
			return err
		}
		rel, err := content.ParseRelation(strings.ToLower(relationFlag))
		if err != nil {
			return err
		}
		return withRetriever(func(r *bot.Retriever) error {
			p, err := r.ByTags(cmd.Context(), ownerFlag, tagIDs, rel, pageFlag)
			if err != nil {
				return fmt.Errorf("failed to list items by tags: %w", err)
			}
			printPage(cmd, p)
			return nil
		})
	},
}

var setStatusCmd = &cobra.Command{
	Use:   "status [item-id] [unread|processed]",
	Short: "Mark a material as read (processed) or unread",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item ID: %w", err)
		}
		status, err := content.ParseStatus(args[1])
		if err != nil {
			return err
		}
		return withRetriever(func(r *bot.Retriever) error {
			item, err := r.SetStatus(cmd.Context(), ownerFlag, id, status)
			if errors.Is(err, content.ErrItemNotFound) {
				return fmt.Errorf("item not found: %d", id)
			}
			if err != nil {
				return fmt.Errorf("failed to set status: %w", err)
			}
			printItem(cmd.OutOrStdout(), item)
			return nil
		})
	},
}

var deleteItemCmd = &cobra.Command{
	Use:   "delete [item-id]",
	Short: "Delete a material",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item ID: %w", err)
		}
		return withRetriever(func(r *bot.Retriever) error {
			err := r.Delete(cmd.Context(), ownerFlag, id)
			if errors.Is(err, content.ErrItemNotFound) {
				return fmt.Errorf("item not found: %d", id)
			}
			if err != nil {
				return fmt.Errorf("failed to delete item: %w", err)
			}
			cmd.Printf("Item %d deleted.\n", id)
			return nil
		})
	},
}

func parseTagIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid tag ID %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("--tags must name at least one tag ID")
	}
	if len(ids) > bot.MaxFilterTags {
		return nil, fmt.Errorf("at most %d tags can be combined", bot.MaxFilterTags)
	}
	return ids, nil
}

func printPage(cmd *cobra.Command, p bot.Page) {
	if p.Empty() {
		if p.PastEnd() {
			cmd.Println("There are no more materials.")
		} else {
			cmd.Println("No materials found.")
		}
		return
	}
	for _, item := range p.Items {
		printItemRow(cmd.OutOrStdout(), item)
	}
	if p.HasNext {
		cmd.Printf("\nMore on page %d (--page %d).\n", p.Number+1, p.Number+1)
	}
}

func initItemsCmd() {
	itemsCmd.PersistentFlags().Int64Var(&ownerFlag, "owner", 0, "Telegram user id owning the collection")

	for _, c := range []*cobra.Command{lastItemCmd, randomItemCmd, listItemsCmd} {
		c.Flags().StringVar(&typeFlag, "type", "", "Content type filter (text, video)")
	}
	listItemsCmd.Flags().StringVar(&statusFlag, "status", "", "Status filter (unread, processed)")
	for _, c := range []*cobra.Command{listItemsCmd, listByTagsCmd} {
		c.Flags().IntVar(&pageFlag, "page", 0, "Zero-based page number")
	}
	listByTagsCmd.Flags().StringVar(&tagIDsFlag, "tags", "", "Comma-separated tag IDs (see 'tags list')")
	listByTagsCmd.Flags().StringVar(&relationFlag, "relation", string(content.RelationAnd), "How tags combine (and, or)")
	listByTagsCmd.MarkFlagRequired("tags")

	itemsCmd.AddCommand(lastItemCmd, randomItemCmd, listItemsCmd, listByTagsCmd, setStatusCmd, deleteItemCmd)
}
