// Package realtime implements a bidirectional WebSocket client for the Ticos
// and OpenAI realtime conversation protocols.
//
// The package is layered. Transport owns the socket and mirrors every frame
// onto an event bus as "client.<type>" and "server.<type>". Conversation
// folds the inbound event stream into ordered, incrementally-updated items.
// Client composes the two, manages session configuration and the tool
// registry, and closes the tool-call loop: when the model finishes a function
// call, the registered handler runs and its result is sent back followed by a
// response request.
//
// A minimal text exchange:
//
//	client, err := realtime.NewClient(realtime.Options{APIKey: key})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := client.Connect(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer client.Disconnect()
//
//	client.SendUserMessageContent([]realtime.ContentPart{
//		{Type: realtime.ContentTypeInputText, Text: "Hello!"},
//	})
//	item, err := client.WaitForNextCompletedItem(ctx)
//
// All audio is 16-bit PCM at 24 kHz; see package pcm for the conversions.
package realtime
