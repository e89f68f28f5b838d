package whoknows

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	root "github.com/knnymrls/whoknows"
	"github.com/knnymrls/whoknows/pkg/config"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question from the command line",
	Long: `Run the full pipeline once against the configured store and model,
and print the answer with its sources.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var (
	askStream    bool
	askUserID    string
	askSessionID string
)

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().BoolVar(&askStream, "stream", false, "Print answer tokens as they arrive")
	askCmd.Flags().StringVar(&askUserID, "user", "cli", "User id to attribute the question to")
	askCmd.Flags().StringVar(&askSessionID, "session", "", "Session id to continue a conversation")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pipe, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer pipe.close()

	req := &root.AskRequest{
		Message:   strings.Join(args, " "),
		UserID:    askUserID,
		SessionID: askSessionID,
	}

	if askStream {
		return streamAsk(cmd.Context(), pipe, req)
	}

	response, err := pipe.client.Ask(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Println(response.Answer)
	printSources(responseSources(response))
	fmt.Fprintln(os.Stderr, "session:", response.SessionID)
	return nil
}

func streamAsk(ctx context.Context, pipe *pipeline, req *root.AskRequest) error {
	dim := color.New(color.Faint).FprintlnFunc()

	return pipe.client.AskStream(ctx, req, func(event root.StreamEvent) error {
		switch event.Type {
		case root.EventStatus:
			dim(os.Stderr, event.Message)
		case root.EventToken:
			fmt.Print(event.Content)
		case root.EventSources:
			fmt.Println()
			printSources(sourceLines(event))
		case root.EventDone:
			fmt.Fprintln(os.Stderr, "session:", event.SessionID)
		case root.EventError:
			fmt.Fprintln(os.Stderr, "error:", event.Message)
		}
		return nil
	})
}

func responseSources(response *root.AskResponse) []string {
	lines := make([]string, 0, len(response.Sources))
	for _, s := range response.Sources {
		lines = append(lines, fmt.Sprintf("[%s] %s", s.Type, s.Name))
	}
	return lines
}

func sourceLines(event root.StreamEvent) []string {
	lines := make([]string, 0, len(event.Sources))
	for _, s := range event.Sources {
		lines = append(lines, fmt.Sprintf("[%s] %s", s.Type, s.Name))
	}
	return lines
}

func printSources(lines []string) {
	if len(lines) == 0 {
		return
	}
	bold := color.New(color.Bold).SprintFunc()
	fmt.Println()
	fmt.Println(bold("Sources:"))
	for _, line := range lines {
		fmt.Println("  " + line)
	}
}
