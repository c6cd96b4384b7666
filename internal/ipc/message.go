// Package ipc carries messages from the extension host to the UI process
// as newline-delimited JSON.
package ipc

import "github.com/wowup/wowup-shell/internal/extension"

// MessageType identifies the payload of a Message.
type MessageType string

const (
	// TypeExtensionLoaded announces a registered extension.
	TypeExtensionLoaded MessageType = "extension-loaded"
	// TypeExtensionFailed reports an extension that could not be loaded.
	TypeExtensionFailed MessageType = "extension-failed"
)

// Message is one unit sent across the process boundary.
type Message struct {
	Type      MessageType         `json:"type"`
	Extension *extension.Metadata `json:"extension,omitempty"`
	Path      string              `json:"path,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// ExtensionLoaded builds the message sent for a newly registered extension.
func ExtensionLoaded(meta extension.Metadata) Message {
	return Message{Type: TypeExtensionLoaded, Extension: &meta}
}

// ExtensionFailed builds the message sent for a rejected extension.
func ExtensionFailed(path string, err error) Message {
	msg := Message{Type: TypeExtensionFailed, Path: path}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}
