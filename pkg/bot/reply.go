package bot

// Button is one inline button. Token is handed back to OnChoice, or to
// OnPageRequest when IsPageToken reports true.
type Button struct {
	Label string
	Token string
}

// Reply is one message to show the user.
type Reply struct {
	Text    string
	Buttons [][]Button
	// Menu lists commands for a persistent reply keyboard.
	Menu []string
	// Replace asks the transport to edit the message carrying the pressed
	// button instead of sending a new one.
	Replace bool
}

// Response is what the transport presents for one inbound event. Notice is a
// short acknowledgement of a pressed button.
type Response struct {
	Notice  string
	Replies []Reply
}

func textReply(text string) Response {
	return Response{Replies: []Reply{{Text: text}}}
}

func replaceReply(text string) Response {
	return Response{Replies: []Reply{{Text: text, Replace: true}}}
}
