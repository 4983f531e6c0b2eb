package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/unowned-ai/readlater/pkg/bot"
	"github.com/unowned-ai/readlater/pkg/content"
)

type toolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

func withOwner() mcp.ToolOption {
	return mcp.WithNumber("owner", mcp.Required(), mcp.Description("Telegram user id owning the collection."))
}

func withContentType() mcp.ToolOption {
	return mcp.WithString("content_type", mcp.Enum("text", "video"), mcp.Description("Optional content type filter."))
}

// RegisterPingTool registers the simple ping tool.
func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong_readlater' to check if the server is alive."),
	)
	s.AddTool(pingTool, pingHandler)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_readlater"), nil
}

// RegisterGetLastItemTool registers the get_last_item tool.
func RegisterGetLastItemTool(s *server.MCPServer, r *bot.Retriever) {
	tool := mcp.NewTool("get_last_item",
		mcp.WithDescription("Returns the most recently saved material."),
		withOwner(),
		withContentType(),
	)
	s.AddTool(tool, getLastItemHandler(r))
}

func getLastItemHandler(r *bot.Retriever) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, errRes := ownerArg(request)
		if errRes != nil {
			return errRes, nil
		}
		t, errRes := typeArg(request)
		if errRes != nil {
			return errRes, nil
		}

		item, err := r.Last(ctx, owner, content.Filter{Type: t})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get last item: %v", err)), nil
		}
		if item == nil {
			return mcp.NewToolResultText("No saved materials."), nil
		}
		return jsonResult(item, "item")
	}
}

// RegisterGetRandomUnreadTool registers the get_random_unread tool.
func RegisterGetRandomUnreadTool(s *server.MCPServer, r *bot.Retriever) {
	tool := mcp.NewTool("get_random_unread",
		mcp.WithDescription("Returns a randomly chosen unread material."),
		withOwner(),
		withContentType(),
	)
	s.AddTool(tool, getRandomUnreadHandler(r))
}

func getRandomUnreadHandler(r *bot.Retriever) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, errRes := ownerArg(request)
		if errRes != nil {
			return errRes, nil
		}
		t, errRes := typeArg(request)
		if errRes != nil {
			return errRes, nil
		}

		item, err := r.RandomUnread(ctx, owner, t)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get a random unread item: %v", err)), nil
		}
		if item == nil {
			return mcp.NewToolResultText("No unread materials."), nil
		}
		return jsonResult(item, "item")
	}
}

// RegisterListItemsTool registers the list_items tool.
func RegisterListItemsTool(s *server.MCPServer, r *bot.Retriever) {
	tool := mcp.NewTool("list_items",
		mcp.WithDescription("Lists saved materials one page at a time, unread first and newest first."),
		withOwner(),
		mcp.WithNumber("page", mcp.Description("Zero-based page number. Defaults to 0.")),
		withContentType(),
		mcp.WithString("status", mcp.Enum("unread", "processed"), mcp.Description("Optional status filter.")),
	)
	s.AddTool(tool, listItemsHandler(r))
}

func listItemsHandler(r *bot.Retriever) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, errRes := ownerArg(request)
		if errRes != nil {
			return errRes, nil
		}
		page, errRes := pageArg(request)
		if errRes != nil {
			return errRes, nil
		}
		t, errRes := typeArg(request)
		if errRes != nil {
			return errRes, nil
		}

		f := content.Filter{Type: t}
		if raw, ok := request.Params.Arguments["status"].(string); ok && raw != "" {
			status, err := content.ParseStatus(raw)
			if err != nil {
				return mcp.NewToolResultError("'status' must be 'unread' or 'processed'."), nil
			}
			f.Status = status
		}

		p, err := r.List(ctx, owner, page, f)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list items: %v", err)), nil
		}
		return jsonResult(p, "page")
	}
}

// RegisterListItemsByTagsTool registers the list_items_by_tags tool.
func RegisterListItemsByTagsTool(s *server.MCPServer, r *bot.Retriever) {
	tool := mcp.NewTool("list_items_by_tags",
		mcp.WithDescription("Lists materials carrying all (and) or any (or) of up to five tags."),
		withOwner(),
		mcp.WithString("tag_ids", mcp.Required(), mcp.Description("Comma-separated tag ids, see list_tags.")),
		mcp.WithString("relation", mcp.Enum("and", "or"), mcp.DefaultString("and"), mcp.Description("How the tags combine. Defaults to 'and'.")),
		mcp.WithNumber("page", mcp.Description("Zero-based page number. Defaults to 0.")),
	)
	s.AddTool(tool, listItemsByTagsHandler(r))
}

func listItemsByTagsHandler(r *bot.Retriever) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, errRes := ownerArg(request)
		if errRes != nil {
			return errRes, nil
		}
		page, errRes := pageArg(request)
		if errRes != nil {
			return errRes, nil
		}
		tagIDs, err := tagIDsArg(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		raw, _ := request.Params.Arguments["relation"].(string)
		if raw == "" {
			raw = string(content.RelationAnd)
		}
		rel, err := content.ParseRelation(raw)
		if err != nil {
			return mcp.NewToolResultError("'relation' must be 'and' or 'or'."), nil
		}

		p, err := r.ByTags(ctx, owner, tagIDs, rel, page)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list items by tags: %v", err)), nil
		}
		return jsonResult(p, "page")
	}
}

// RegisterListTagsTool registers the list_tags tool.
func RegisterListTagsTool(s *server.MCPServer, r *bot.Retriever) {
	tool := mcp.NewTool("list_tags",
		mcp.WithDescription("Lists the owner's tags sorted by name."),
		withOwner(),
	)
	s.AddTool(tool, listTagsHandler(r))
}

func listTagsHandler(r *bot.Retriever) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, errRes := ownerArg(request)
		if errRes != nil {
			return errRes, nil
		}

		tags, err := r.Tags(ctx, owner)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list tags: %v", err)), nil
		}
		if len(tags) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(tags, "tags")
	}
}

// RegisterSetItemStatusTool registers the set_item_status tool.
func RegisterSetItemStatusTool(s *server.MCPServer, r *bot.Retriever) {
	tool := mcp.NewTool("set_item_status",
		mcp.WithDescription("Marks a material as read (processed) or unread."),
		withOwner(),
		mcp.WithNumber("item_id", mcp.Required(), mcp.Description("Id of the material.")),
		mcp.WithString("status", mcp.Required(), mcp.Enum("unread", "processed"), mcp.Description("New status.")),
	)
	s.AddTool(tool, setItemStatusHandler(r))
}

func setItemStatusHandler(r *bot.Retriever) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, errRes := ownerArg(request)
		if errRes != nil {
			return errRes, nil
		}
		id, ok := int64Arg(request, "item_id")
		if !ok {
			return mcp.NewToolResultError("'item_id' parameter is required and must be an integer."), nil
		}
		raw, _ := request.Params.Arguments["status"].(string)
		status, err := content.ParseStatus(raw)
		if err != nil {
			return mcp.NewToolResultError("'status' must be 'unread' or 'processed'."), nil
		}

		item, err := r.SetStatus(ctx, owner, id, status)
		if errors.Is(err, content.ErrItemNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Item %d not found.", id)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to set status of item %d: %v", id, err)), nil
		}
		return jsonResult(item, "item")
	}
}

// RegisterDeleteItemTool registers the delete_item tool.
func RegisterDeleteItemTool(s *server.MCPServer, r *bot.Retriever) {
	tool := mcp.NewTool("delete_item",
		mcp.WithDescription("Deletes a material and its tag links."),
		withOwner(),
		mcp.WithNumber("item_id", mcp.Required(), mcp.Description("Id of the material.")),
	)
	s.AddTool(tool, deleteItemHandler(r))
}

func deleteItemHandler(r *bot.Retriever) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, errRes := ownerArg(request)
		if errRes != nil {
			return errRes, nil
		}
		id, ok := int64Arg(request, "item_id")
		if !ok {
			return mcp.NewToolResultError("'item_id' parameter is required and must be an integer."), nil
		}

		err := r.Delete(ctx, owner, id)
		if errors.Is(err, content.ErrItemNotFound) {
			return mcp.NewToolResultText(fmt.Sprintf("Item %d not found, nothing to delete.", id)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete item %d: %v", id, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Item %d deleted successfully.", id)), nil
	}
}

// RegisterGetStatisticsTool registers the get_statistics tool.
func RegisterGetStatisticsTool(s *server.MCPServer, r *bot.Retriever) {
	tool := mcp.NewTool("get_statistics",
		mcp.WithDescription("Summarises the collection: totals, reads in the last 7 and 30 days, counts by type."),
		withOwner(),
	)
	s.AddTool(tool, getStatisticsHandler(r))
}

func getStatisticsHandler(r *bot.Retriever) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, errRes := ownerArg(request)
		if errRes != nil {
			return errRes, nil
		}

		stats, err := r.Statistics(ctx, owner)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to compute statistics: %v", err)), nil
		}
		return jsonResult(stats, "statistics")
	}
}
