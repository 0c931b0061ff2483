package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// CallbackDataSeparator splits the action name from its argument.
	CallbackDataSeparator = ":"
	// CallbackDataLimitBytes is the Telegram hard limit on callback data.
	CallbackDataLimitBytes = 64
)

// EncodeCallback validates callback data against the Telegram size limit.
func EncodeCallback(data string) (string, error) {
	if data == "" {
		return "", errors.New("callback data is empty")
	}

	if len(data) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(data))
	}

	return data, nil
}

// JoinCallback composes an action name and argument into callback data.
func JoinCallback(action, arg string) string {
	if arg == "" {
		return action
	}
	return action + CallbackDataSeparator + arg
}

// SplitCallback separates callback data into the action name and argument.
func SplitCallback(data string) (action, arg string) {
	idx := strings.Index(data, CallbackDataSeparator)
	if idx == -1 {
		return data, ""
	}
	return data[:idx], data[idx+len(CallbackDataSeparator):]
}
