package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/tiwater/ticos-realtime-go/pkg/realtime"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Stream raw protocol events to stdout",
	Long: `Open a realtime session and print every protocol event, inbound and
outbound, as one JSON object per line. Runs until interrupted.

The --query flag filters and reshapes events with a jq expression applied to
each envelope ({time, source, event}).

Example:
  ticosrt -c myctx events
  ticosrt -c myctx events --query 'select(.source == "server") | .event.type'`,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().String("query", "", "jq expression applied to each event envelope")
	eventsCmd.Flags().Duration("for", 0, "stop after this duration (default: run until interrupted)")
}

func runEvents(cmd *cobra.Command, args []string) error {
	queryStr, err := cmd.Flags().GetString("query")
	if err != nil {
		return fmt.Errorf("failed to read 'query' flag: %w", err)
	}
	runFor, err := cmd.Flags().GetDuration("for")
	if err != nil {
		return fmt.Errorf("failed to read 'for' flag: %w", err)
	}

	var query *gojq.Query
	if queryStr != "" {
		query, err = gojq.Parse(queryStr)
		if err != nil {
			return fmt.Errorf("invalid query: %w", err)
		}
	}

	cliCtx, err := getContext()
	if err != nil {
		return err
	}
	client, err := newClient(cliCtx)
	if err != nil {
		return err
	}
	if update := sessionUpdateFromContext(cliCtx); update != nil {
		if err := client.UpdateConfig(update); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	client.On(realtime.EventRealtime, func(_ string, payload any) {
		env := payload.(*realtime.RealtimeEvent)
		printEnvelope(enc, env, query)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runFor)
		defer cancel()
	}

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Disconnect()

	<-ctx.Done()
	return nil
}

// printEnvelope renders one envelope, optionally through the jq query. The
// envelope is round-tripped through JSON so the query sees plain maps.
func printEnvelope(enc *json.Encoder, env *realtime.RealtimeEvent, query *gojq.Query) {
	data, err := json.Marshal(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: unencodable event: %v\n", err)
		return
	}

	if query == nil {
		os.Stdout.Write(data)
		os.Stdout.Write([]byte("\n"))
		return
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	iter := query.RunWithContext(ctx, decoded)
	for {
		v, ok := iter.Next()
		if !ok {
			return
		}
		if err, isErr := v.(error); isErr {
			fmt.Fprintf(os.Stderr, "Error: query: %v\n", err)
			continue
		}
		if err := enc.Encode(v); err != nil {
			return
		}
	}
}
