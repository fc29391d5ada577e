package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tiwater/ticos-realtime-go/pkg/cli"
	"github.com/tiwater/ticos-realtime-go/pkg/realtime"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive text chat over a realtime session",
	Long: `Open a realtime session and chat with the model from the terminal.

Each line you type is sent as a user message; the assistant's reply streams
back token by token. Exit with /quit, Ctrl-D, or Ctrl-C.

Example:
  ticosrt -c myctx chat
  ticosrt -c myctx chat --instructions "Answer in one sentence."`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("instructions", "", "system instructions for this session")
}

func runChat(cmd *cobra.Command, args []string) error {
	cliCtx, err := getContext()
	if err != nil {
		return err
	}
	client, err := newClient(cliCtx)
	if err != nil {
		return err
	}

	styles := cli.NewStyles(cli.DefaultTheme)

	// Text-only session; the terminal has no audio path.
	update := sessionUpdateFromContext(cliCtx)
	if update == nil {
		update = &realtime.SessionUpdate{}
	}
	if update.Model == nil {
		update.Model = &realtime.ModelUpdate{}
	}
	update.Model.Modalities = []string{realtime.ModalityText}
	if instructions, _ := cmd.Flags().GetString("instructions"); instructions != "" {
		update.Model.Instructions = &instructions
	}
	if err := client.UpdateConfig(update); err != nil {
		return err
	}

	// Stream the assistant's text as it arrives.
	replyDone := make(chan struct{}, 1)
	client.On(realtime.EventConversationUpdated, func(_ string, payload any) {
		u := payload.(*realtime.ConversationUpdate)
		if u.Item.Role != realtime.RoleAssistant || u.Delta == nil {
			return
		}
		if u.Delta.Text != "" {
			fmt.Print(u.Delta.Text)
		} else if u.Delta.Transcript != "" {
			fmt.Print(u.Delta.Transcript)
		}
	})
	client.On(realtime.EventItemCompleted, func(_ string, payload any) {
		item := payload.(*realtime.Item)
		if item.Role == realtime.RoleAssistant {
			fmt.Println()
			select {
			case replyDone <- struct{}{}:
			default:
			}
		}
	})
	client.On(realtime.EventClientError, func(_ string, payload any) {
		if err, ok := payload.(error); ok {
			fmt.Fprintln(os.Stderr, styles.Error.Render("error: "+err.Error()))
		}
	})

	connectCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return err
	}
	defer client.Disconnect()
	if err := client.WaitForSessionCreated(connectCtx); err != nil {
		return fmt.Errorf("session was never created: %w", err)
	}

	fmt.Println(styles.Meta.Render("Connected. Type a message, /quit to exit."))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(styles.User.Render("you> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		err := client.SendUserMessageContent([]realtime.ContentPart{
			{Type: realtime.ContentTypeInputText, Text: line},
		})
		if err != nil {
			return err
		}

		fmt.Print(styles.Assistant.Render("assistant> "))
		select {
		case <-replyDone:
		case <-cmd.Context().Done():
			fmt.Println()
			return cmd.Context().Err()
		case <-time.After(2 * time.Minute):
			fmt.Println()
			fmt.Fprintln(os.Stderr, styles.Error.Render("timed out waiting for a reply"))
		}
	}
}
