package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unowned-ai/readlater/pkg/bot"
	"github.com/unowned-ai/readlater/pkg/content"
)

// int64Arg reads a whole number argument. JSON numbers arrive as float64,
// some clients send numeric strings.
func int64Arg(request mcp.CallToolRequest, name string) (int64, bool) {
	switch v := request.Params.Arguments[name].(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func ownerArg(request mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	owner, ok := int64Arg(request, "owner")
	if !ok {
		return 0, mcp.NewToolResultError("'owner' parameter is required and must be an integer user id.")
	}
	return owner, nil
}

func pageArg(request mcp.CallToolRequest) (int, *mcp.CallToolResult) {
	if _, present := request.Params.Arguments["page"]; !present {
		return 0, nil
	}
	page, ok := int64Arg(request, "page")
	if !ok || page < 0 {
		return 0, mcp.NewToolResultError("'page' must be a non-negative integer.")
	}
	return int(page), nil
}

func typeArg(request mcp.CallToolRequest) (content.Type, *mcp.CallToolResult) {
	raw, _ := request.Params.Arguments["content_type"].(string)
	t, err := content.ParseType(raw)
	if err != nil {
		return content.TypeNone, mcp.NewToolResultError("'content_type' must be 'text' or 'video'.")
	}
	return t, nil
}

// tagIDsArg accepts a comma-separated string or an array of ids.
func tagIDsArg(request mcp.CallToolRequest) ([]int64, error) {
	var parts []string
	switch v := request.Params.Arguments["tag_ids"].(type) {
	case string:
		parts = strings.Split(v, ",")
	case []any:
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
	default:
		return nil, errors.New("'tag_ids' is required")
	}

	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid tag id %q", p)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("'tag_ids' must name at least one tag")
	}
	if len(ids) > bot.MaxFilterTags {
		return nil, fmt.Errorf("at most %d tags can be combined", bot.MaxFilterTags)
	}
	return ids, nil
}

func jsonResult(v any, what string) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize %s to JSON: %v", what, err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
