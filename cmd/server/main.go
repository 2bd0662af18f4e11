// Command server runs the VibeMind Solutions assistant: a streaming chat
// endpoint backed by an OpenAI-compatible model, with every turn recorded in
// the conversations table.
//
// Usage:
//
//	server --addr :8000 --log-level debug
package main

func main() {
	Execute()
}
