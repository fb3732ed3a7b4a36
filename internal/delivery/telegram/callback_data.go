package telegram

import (
	"strings"

	"github.com/google/uuid"
)

// Callback action constants.
const (
	actionRead  = "read"
	actionInbox = "inbox"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	if len(parts) == 0 {
		return callbackData{Raw: data}
	}

	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// buildReadCallback builds callback data for marking a notification as read.
func buildReadCallback(id uuid.UUID) string {
	return callbackData{
		Action: actionRead,
		Params: []string{id.String()},
	}.encode()
}

func buildInboxCallback() string {
	return actionInbox
}
