package bot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/unowned-ai/readlater/pkg/content"
)

const (
	helpText = `ReadLater keeps links and notes to read or watch later.

Send or forward a message to save it, then classify and tag it.
/last [text|video] - the most recently saved material
/random [text|video] - a random unread material
/all [text|video] - everything, unread first
/bytags - materials filtered by tags
/stats - your reading statistics
/cancel - stop the current dialog`

	askContentTypeText   = "📌 Saved to your collection. What kind of material is it?"
	askTagsText          = "Pick tags or add a new one:"
	askTagNameText       = "Send the name of the new tag:"
	emptyTagNameText     = "A tag name can't be empty. Send the name of the new tag:"
	savedText            = "🌱 Material saved. Find it later with /all or /bytags."
	staleText            = "This is outdated. Send a new message to save more material."
	tryLaterText         = "Something went wrong. Please try again later."
	noMaterialsText      = "You have no saved materials yet."
	noUnreadText         = "You have no unread materials."
	pastEndText          = "There are no more materials."
	noMatchesText        = "No materials have these tags."
	noTagsText           = "You have no tags yet. Tags are added while saving material."
	selectFilterText     = "Select up to 5 tags, then show materials having all or any of them:"
	filterCancelledText  = "Tag filter cancelled."
	filterHintText       = "Pick tags with the buttons above, or /cancel."
	cancelledText        = "Cancelled."
	nothingToCancelText  = "Nothing to cancel."
	unknownCommandText   = "Unknown command. See /help."
	emptyMessageText     = "Send a link or some text to save it."
	deletedText          = "Material deleted."
	unknownActionNotice  = "Unknown action."
	newTagInFilterNotice = "New tags can't be created here. Pick an existing tag."
	tooManyTagsNotice    = "At most 5 tags can be combined."
	selectTagNotice      = "Select at least one tag."

	dateLayout   = "02.01.2006 15:04"
	previewRunes = 80
)

const (
	tagsPerRow     = 6
	tagRowsPerPage = 5
	tagsPerPage    = tagsPerRow * tagRowsPerPage
)

var mainMenu = []string{"/random", "/last", "/all"}

func contentTypeButtons() [][]Button {
	return [][]Button{
		{
			{Label: "📃 Text", Token: Choice{Kind: ChoiceContentType, Type: content.TypeText}.Token()},
			{Label: "▶️ Video", Token: Choice{Kind: ChoiceContentType, Type: content.TypeVideo}.Token()},
		},
		{{Label: "⏩ Skip", Token: Choice{Kind: ChoiceContentType, Type: content.TypeNone}.Token()}},
	}
}

// tagGrid lays out one page of tags, tagsPerRow per row, followed by a
// navigation row when there is more than one page. The page is clamped.
func tagGrid(tags []content.Tag, page int, button func(content.Tag) Button) ([][]Button, int) {
	if len(tags) == 0 {
		return nil, 0
	}

	pages := tagPages(len(tags))
	page = clampTagPage(len(tags), page)

	window := tags[page*tagsPerPage : min((page+1)*tagsPerPage, len(tags))]
	var rows [][]Button
	for start := 0; start < len(window); start += tagsPerRow {
		row := make([]Button, 0, tagsPerRow)
		for _, tag := range window[start:min(start+tagsPerRow, len(window))] {
			row = append(row, button(tag))
		}
		rows = append(rows, row)
	}

	if pages > 1 {
		var nav []Button
		if page > 0 {
			nav = append(nav, Button{Label: "◀️ Previous", Token: Choice{Kind: ChoiceTagPage, Page: page - 1}.Token()})
		}
		nav = append(nav, Button{Label: fmt.Sprintf("📄 %d/%d", page+1, pages), Token: Choice{Kind: ChoiceNoop}.Token()})
		if page < pages-1 {
			nav = append(nav, Button{Label: "Next ▶️", Token: Choice{Kind: ChoiceTagPage, Page: page + 1}.Token()})
		}
		rows = append(rows, nav)
	}
	return rows, page
}

func tagPages(n int) int {
	return (n + tagsPerPage - 1) / tagsPerPage
}

// clampTagPage keeps a picker page within the pages that n tags fill.
func clampTagPage(n, page int) int {
	return max(0, min(page, tagPages(n)-1))
}

// tagPicker is the keyboard of the intake dialog. Tags already linked to the
// item are checked.
func tagPicker(tags []content.Tag, linked []string, page int) Reply {
	has := make(map[string]bool, len(linked))
	for _, name := range linked {
		has[name] = true
	}

	rows, _ := tagGrid(tags, page, func(tag content.Tag) Button {
		label := tag.Name
		if has[tag.Name] {
			label = "✓ " + label
		}
		return Button{Label: label, Token: Choice{Kind: ChoiceTag, ID: tag.ID}.Token()}
	})
	rows = append(rows,
		[]Button{{Label: "🎳 New tag", Token: Choice{Kind: ChoiceNewTag}.Token()}},
		[]Button{{Label: "⏩ Done", Token: Choice{Kind: ChoiceSkipTags}.Token()}},
	)
	return Reply{Text: askTagsText, Buttons: rows}
}

// filterPicker is the keyboard of the tag-filter dialog.
func filterPicker(tags []content.Tag, selected []int64, page int) Reply {
	chosen := make(map[int64]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}

	rows, _ := tagGrid(tags, page, func(tag content.Tag) Button {
		label := tag.Name
		if chosen[tag.ID] {
			label = "✓ " + label
		}
		return Button{Label: label, Token: Choice{Kind: ChoiceFilterToggle, ID: tag.ID}.Token()}
	})
	rows = append(rows,
		[]Button{
			{Label: "All selected", Token: Choice{Kind: ChoiceFilterApply, Relation: content.RelationAnd}.Token()},
			{Label: "Any selected", Token: Choice{Kind: ChoiceFilterApply, Relation: content.RelationOr}.Token()},
		},
		[]Button{{Label: "Cancel", Token: Choice{Kind: ChoiceFilterCancel}.Token()}},
	)

	text := selectFilterText
	if names := selectedNames(tags, chosen); len(names) > 0 {
		text += "\nSelected: " + strings.Join(names, ", ")
	}
	return Reply{Text: text, Buttons: rows}
}

func selectedNames(tags []content.Tag, chosen map[int64]bool) []string {
	var names []string
	for _, tag := range tags {
		if chosen[tag.ID] {
			names = append(names, tag.Name)
		}
	}
	return names
}

func typeLabel(t content.Type) string {
	if t == content.TypeNone {
		return "not set"
	}
	return string(t)
}

func statusLabel(s content.Status) string {
	if s == content.StatusProcessed {
		return "read"
	}
	return "unread"
}

// messageLink points back to a forwarded channel post. Telegram only offers
// such links for chats whose id carries the -100 prefix.
func messageLink(item content.Item) string {
	if item.OriginChatID == nil || item.OriginMessageID == nil {
		return ""
	}
	chat := strconv.FormatInt(*item.OriginChatID, 10)
	if !strings.HasPrefix(chat, "-100") {
		return ""
	}
	return fmt.Sprintf("https://t.me/c/%s/%d", strings.TrimPrefix(chat, "-100"), *item.OriginMessageID)
}

func itemCard(item content.Item) Reply {
	var b strings.Builder
	b.WriteString(item.Content)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Type: %s\n", typeLabel(item.Type))
	fmt.Fprintf(&b, "Added: %s\n", item.DateAdded.Format(dateLayout))
	fmt.Fprintf(&b, "Status: %s\n", statusLabel(item.Status))
	if len(item.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(item.Tags, ", "))
	}
	fmt.Fprintf(&b, "Source: %s", item.Source)
	if link := messageLink(item); link != "" {
		fmt.Fprintf(&b, "\nOriginal: %s", link)
	}

	return Reply{
		Text: b.String(),
		Buttons: [][]Button{
			{
				{Label: "✅ Mark read", Token: Choice{Kind: ChoiceStatus, ID: item.ID, Status: content.StatusProcessed}.Token()},
				{Label: "📖 Mark unread", Token: Choice{Kind: ChoiceStatus, ID: item.ID, Status: content.StatusUnread}.Token()},
			},
			{{Label: "🗑 Delete", Token: Choice{Kind: ChoiceDelete, ID: item.ID}.Token()}},
		},
	}
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes-1]) + "…"
}

// pageReply renders one listing page. Numbered buttons open item cards, the
// last row navigates between pages.
func pageReply(title string, page Page, req PageRequest) Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, page %d:\n", title, page.Number+1)

	open := make([]Button, 0, len(page.Items))
	for i, item := range page.Items {
		n := page.Number*page.Size + i + 1
		fmt.Fprintf(&b, "\n%d. %s\n   %s, %s", n, preview(item.Content), typeLabel(item.Type), statusLabel(item.Status))
		if len(item.Tags) > 0 {
			fmt.Fprintf(&b, ", #%s", strings.Join(item.Tags, " #"))
		}
		open = append(open, Button{Label: strconv.Itoa(n), Token: Choice{Kind: ChoiceOpenItem, ID: item.ID}.Token()})
	}

	rows := [][]Button{open}
	var nav []Button
	if page.Number > 0 {
		prev := req
		prev.Page = page.Number - 1
		nav = append(nav, Button{Label: "◀️ Previous", Token: prev.Token()})
	}
	if page.HasNext {
		next := req
		next.Page = page.Number + 1
		nav = append(nav, Button{Label: "Next ▶️", Token: next.Token()})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	return Reply{Text: b.String(), Buttons: rows}
}

func statisticsText(stats content.Statistics) string {
	var b strings.Builder
	b.WriteString("📊 Your collection\n")
	fmt.Fprintf(&b, "Total: %d\n", stats.Total)
	fmt.Fprintf(&b, "Unread: %d\n", stats.Unread)
	fmt.Fprintf(&b, "Read: %d\n", stats.Read)
	fmt.Fprintf(&b, "Read in the last 7 days: %d\n", stats.ReadLastWeek)
	fmt.Fprintf(&b, "Read in the last 30 days: %d", stats.ReadLastMonth)

	if len(stats.ByType) > 0 {
		types := make([]string, 0, len(stats.ByType))
		for t := range stats.ByType {
			types = append(types, string(t))
		}
		sort.Strings(types)
		parts := make([]string, 0, len(types))
		for _, t := range types {
			parts = append(parts, fmt.Sprintf("%s %d", t, stats.ByType[content.Type(t)]))
		}
		fmt.Fprintf(&b, "\nBy type: %s", strings.Join(parts, ", "))
	}
	return b.String()
}
