package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"completiond/pkg/types"
)

// Config carries the persistent flags.
type Config struct {
	Server  string
	Timeout time.Duration
}

// DefaultConfig reads defaults from the environment.
func DefaultConfig() *Config {
	return &Config{
		Server:  envStr("COMPLETIOND_URL", "http://127.0.0.1:8000"),
		Timeout: envDuration("COMPLETIONCTL_TIMEOUT", 2*time.Minute),
	}
}

// BuildRootCmd constructs the completionctl command tree.
func BuildRootCmd(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "completionctl",
		Short:         "Client for a running completiond server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.Server, "server", cfg.Server, "Server base URL (defaults COMPLETIOND_URL or http://127.0.0.1:8000)")
	root.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")

	client := func() *Client { return NewClient(cfg.Server, cfg.Timeout) }

	var (
		model       string
		maxTokens   int
		temperature float64
	)
	completeCmd := &cobra.Command{
		Use:     "complete [prompt...]",
		Short:   "Send a prompt to /completions and print the text",
		Example: "  completionctl complete --model yiyanghkust/finbert-tone 'Revenue grew 20%'\n  echo 'def add' | completionctl complete --model codegen",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptFrom(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			resp, err := client().Complete(cmd.Context(), types.CompletionRequest{
				Model:       model,
				Prompt:      prompt,
				MaxTokens:   maxTokens,
				Temperature: temperature,
			})
			if err != nil {
				return err
			}
			if resp.Error != "" {
				return errors.New(resp.Error)
			}
			for _, c := range resp.Choices {
				fmt.Fprintln(cmd.OutOrStdout(), c.Text)
			}
			return nil
		},
	}
	completeCmd.Flags().StringVarP(&model, "model", "m", "", "Model id (server default when empty)")
	completeCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum new tokens (local GGUF models only)")
	completeCmd.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature (local GGUF models only)")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List models registered on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().Models(cmd.Context())
			if err != nil {
				return err
			}
			return printModels(cmd.OutOrStdout(), resp)
		},
	}

	var (
		waitFor  time.Duration
		waitPath string
	)
	waitCmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until the server reports ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), waitFor)
			defer cancel()
			c := client()
			c.HTTP.Timeout = 2 * time.Second
			if err := c.WaitHTTP(ctx, waitPath, http.StatusOK, 500*time.Millisecond); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is ready\n", cfg.Server)
			return nil
		},
	}
	waitCmd.Flags().DurationVar(&waitFor, "for", 30*time.Second, "How long to wait")
	waitCmd.Flags().StringVar(&waitPath, "path", "/readyz", "Path polled until it returns 200")

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})

	root.AddCommand(completeCmd, modelsCmd, waitCmd, completionCmd)
	return root
}

// promptFrom joins args, or reads stdin when no args are given.
func promptFrom(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok {
		if st, err := f.Stat(); err == nil && st.Mode()&os.ModeCharDevice != 0 {
			return "", errors.New("no prompt: pass it as arguments or on stdin")
		}
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	p := strings.TrimRight(string(b), "\n")
	if strings.TrimSpace(p) == "" {
		return "", errors.New("no prompt: pass it as arguments or on stdin")
	}
	return p, nil
}

func printModels(w io.Writer, resp types.ModelsResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tTASK\tDEFAULT")
	for _, m := range resp.Models {
		def := ""
		if m.ID == resp.Default {
			def = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Source, m.Task, def)
	}
	return tw.Flush()
}
