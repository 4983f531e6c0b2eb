package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/unowned-ai/readlater/pkg/content"
)

// ErrMalformedToken is returned for button tokens that do not parse.
var ErrMalformedToken = errors.New("malformed token")

// MaxFilterTags bounds a tag filter so a page token fits in Telegram's
// 64-byte callback data.
const MaxFilterTags = 5

// ChoiceKind enumerates the buttons a user can press.
type ChoiceKind int

const (
	ChoiceNoop ChoiceKind = iota
	ChoiceContentType
	ChoiceTag
	ChoiceNewTag
	ChoiceSkipTags
	ChoiceTagPage
	ChoiceOpenItem
	ChoiceStatus
	ChoiceDelete
	ChoiceFilterToggle
	ChoiceFilterApply
	ChoiceFilterCancel
)

// Choice is a parsed button token. Only the fields of its Kind are set.
type Choice struct {
	Kind     ChoiceKind
	Type     content.Type
	ID       int64
	Page     int
	Status   content.Status
	Relation content.Relation
}

// ParseChoice parses tokens of the forms
//
//	ct:<text|video|skip>   tag:<id|new|skip>   tags:<page>   item:<id>
//	status:<id>:<unread|processed>   del:<id>
//	ft:<id>   fa:<and|or>   fc   noop
func ParseChoice(token string) (Choice, error) {
	parts := strings.Split(token, ":")
	bad := fmt.Errorf("%w: %q", ErrMalformedToken, token)

	switch parts[0] {
	case "noop":
		if len(parts) != 1 {
			return Choice{}, bad
		}
		return Choice{Kind: ChoiceNoop}, nil
	case "fc":
		if len(parts) != 1 {
			return Choice{}, bad
		}
		return Choice{Kind: ChoiceFilterCancel}, nil
	}

	if len(parts) < 2 {
		return Choice{}, bad
	}

	switch parts[0] {
	case "ct":
		if len(parts) != 2 {
			return Choice{}, bad
		}
		if parts[1] == "skip" {
			return Choice{Kind: ChoiceContentType, Type: content.TypeNone}, nil
		}
		t, err := content.ParseType(parts[1])
		if err != nil || t == content.TypeNone {
			return Choice{}, bad
		}
		return Choice{Kind: ChoiceContentType, Type: t}, nil

	case "tag":
		if len(parts) != 2 {
			return Choice{}, bad
		}
		switch parts[1] {
		case "new":
			return Choice{Kind: ChoiceNewTag}, nil
		case "skip":
			return Choice{Kind: ChoiceSkipTags}, nil
		}
		id, err := parseID(parts[1])
		if err != nil {
			return Choice{}, bad
		}
		return Choice{Kind: ChoiceTag, ID: id}, nil

	case "tags":
		if len(parts) != 2 {
			return Choice{}, bad
		}
		page, err := parsePage(parts[1])
		if err != nil {
			return Choice{}, bad
		}
		return Choice{Kind: ChoiceTagPage, Page: page}, nil

	case "item", "del", "ft":
		if len(parts) != 2 {
			return Choice{}, bad
		}
		id, err := parseID(parts[1])
		if err != nil {
			return Choice{}, bad
		}
		kind := map[string]ChoiceKind{"item": ChoiceOpenItem, "del": ChoiceDelete, "ft": ChoiceFilterToggle}[parts[0]]
		return Choice{Kind: kind, ID: id}, nil

	case "status":
		if len(parts) != 3 {
			return Choice{}, bad
		}
		id, err := parseID(parts[1])
		if err != nil {
			return Choice{}, bad
		}
		status, err := content.ParseStatus(parts[2])
		if err != nil {
			return Choice{}, bad
		}
		return Choice{Kind: ChoiceStatus, ID: id, Status: status}, nil

	case "fa":
		if len(parts) != 2 {
			return Choice{}, bad
		}
		rel, err := content.ParseRelation(parts[1])
		if err != nil {
			return Choice{}, bad
		}
		return Choice{Kind: ChoiceFilterApply, Relation: rel}, nil
	}

	return Choice{}, bad
}

// Token is the inverse of ParseChoice.
func (c Choice) Token() string {
	switch c.Kind {
	case ChoiceContentType:
		if c.Type == content.TypeNone {
			return "ct:skip"
		}
		return "ct:" + string(c.Type)
	case ChoiceTag:
		return "tag:" + strconv.FormatInt(c.ID, 10)
	case ChoiceNewTag:
		return "tag:new"
	case ChoiceSkipTags:
		return "tag:skip"
	case ChoiceTagPage:
		return "tags:" + strconv.Itoa(c.Page)
	case ChoiceOpenItem:
		return "item:" + strconv.FormatInt(c.ID, 10)
	case ChoiceStatus:
		return fmt.Sprintf("status:%d:%s", c.ID, c.Status)
	case ChoiceDelete:
		return "del:" + strconv.FormatInt(c.ID, 10)
	case ChoiceFilterToggle:
		return "ft:" + strconv.FormatInt(c.ID, 10)
	case ChoiceFilterApply:
		return "fa:" + string(c.Relation)
	case ChoiceFilterCancel:
		return "fc"
	default:
		return "noop"
	}
}

// PageKind distinguishes the two paged listings.
type PageKind int

const (
	PageList PageKind = iota + 1
	PageByTags
)

// PageRequest is a parsed page token. A PageList request may carry a type
// filter, a PageByTags request carries the tag set and its relation.
type PageRequest struct {
	Kind     PageKind
	Page     int
	Type     content.Type
	Relation content.Relation
	TagIDs   []int64
}

// ParsePage parses `list:<page>[:<type>]` and `tlist:<and|or>:<page>:<id,id,...>`.
func ParsePage(token string) (PageRequest, error) {
	parts := strings.Split(token, ":")
	bad := fmt.Errorf("%w: %q", ErrMalformedToken, token)

	switch parts[0] {
	case "list":
		if len(parts) < 2 || len(parts) > 3 {
			return PageRequest{}, bad
		}
		page, err := parsePage(parts[1])
		if err != nil {
			return PageRequest{}, bad
		}
		req := PageRequest{Kind: PageList, Page: page}
		if len(parts) == 3 {
			t, err := content.ParseType(parts[2])
			if err != nil || t == content.TypeNone {
				return PageRequest{}, bad
			}
			req.Type = t
		}
		return req, nil

	case "tlist":
		if len(parts) != 4 {
			return PageRequest{}, bad
		}
		rel, err := content.ParseRelation(parts[1])
		if err != nil {
			return PageRequest{}, bad
		}
		page, err := parsePage(parts[2])
		if err != nil {
			return PageRequest{}, bad
		}
		fields := strings.Split(parts[3], ",")
		if len(fields) == 0 || len(fields) > MaxFilterTags {
			return PageRequest{}, bad
		}
		ids := make([]int64, 0, len(fields))
		for _, f := range fields {
			id, err := parseID(f)
			if err != nil {
				return PageRequest{}, bad
			}
			ids = append(ids, id)
		}
		return PageRequest{Kind: PageByTags, Page: page, Relation: rel, TagIDs: ids}, nil
	}

	return PageRequest{}, bad
}

// Token is the inverse of ParsePage.
func (p PageRequest) Token() string {
	if p.Kind == PageByTags {
		ids := make([]string, 0, len(p.TagIDs))
		for _, id := range p.TagIDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		return fmt.Sprintf("tlist:%s:%d:%s", p.Relation, p.Page, strings.Join(ids, ","))
	}
	if p.Type != content.TypeNone {
		return fmt.Sprintf("list:%d:%s", p.Page, p.Type)
	}
	return "list:" + strconv.Itoa(p.Page)
}

// IsPageToken reports whether a button token belongs to OnPageRequest rather
// than OnChoice.
func IsPageToken(token string) bool {
	return strings.HasPrefix(token, "list:") || strings.HasPrefix(token, "tlist:")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrMalformedToken
	}
	return id, nil
}

func parsePage(s string) (int, error) {
	page, err := strconv.Atoi(s)
	if err != nil || page < 0 {
		return 0, ErrMalformedToken
	}
	return page, nil
}
