// Package structai is the Go client for the structai conversation API.
//
// A Client drives one or more server-side conversations:
//
//	client := structai.New("http://localhost:8080", structai.WithAPIKey("secret"))
//	conv, err := client.CreateConversation(ctx)
//	if err != nil { ... }
//	answer, err := client.Send(ctx, conv, "What are the egress requirements for assembly occupancies?")
//
// Failures map to sentinel errors (ErrConversationNotFound and friends);
// check them with errors.Is.
package structai
