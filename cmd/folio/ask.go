package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/newthinker/folio/internal/llm"
	"github.com/newthinker/folio/internal/llm/factory"
	"github.com/spf13/cobra"
)

var (
	askModel   string
	askSystem  string
	askGround  bool
	askJSON    bool
	askTimeout time.Duration
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt...]",
	Short: "Send a prompt to a model",
	Long: `Send a prompt to one of the routed models and print the answer.
With --ground the prompt goes to the grounded Gemini path and search sources are
printed after the answer. With --json the answer is parsed as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "model id (default from config)")
	askCmd.Flags().StringVar(&askSystem, "system", "", "system message")
	askCmd.Flags().BoolVar(&askGround, "ground", false, "answer with web search grounding")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "parse the answer as JSON")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "request timeout")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	model, err := parseModelFlag(askModel)
	if err != nil {
		return err
	}

	r, err := factory.New(cfg.LLM, log, nil)
	if err != nil {
		return fmt.Errorf("creating model router: %w", err)
	}

	var messages []llm.Message
	if askSystem != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: askSystem})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: strings.Join(args, " ")})

	ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
	defer cancel()

	var text, sources string
	if askGround {
		res, err := r.GeminiWebResponse(ctx, messages, model, true)
		if err != nil {
			return err
		}
		text, sources = res.Text, res.SourceLink
	} else {
		text, err = r.ChatCompletion(ctx, messages, model, llm.Options{JSONMode: askJSON})
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if askJSON {
		value, err := llm.ParseJSON(text)
		if err != nil {
			fmt.Fprintln(os.Stderr, text)
			return err
		}
		return printJSON(out, value)
	}

	fmt.Fprintln(out, text)
	if sources != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Sources:")
		fmt.Fprintln(out, sources)
	}
	return nil
}

func parseModelFlag(s string) (llm.ModelID, error) {
	if s == "" {
		return "", nil
	}
	id, err := llm.ParseModelID(s)
	if err != nil {
		return "", fmt.Errorf("%w (known: %s)", err, knownModels())
	}
	return id, nil
}

func knownModels() string {
	models := llm.Models()
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func printJSON(w io.Writer, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
