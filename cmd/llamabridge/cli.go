package main

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"llamabridge/internal/host"
	"llamabridge/internal/session"
	"llamabridge/pkg/types"
)

func modelsCmd(st *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List *.gguf models in the models directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.load(cmd)
			if err != nil {
				return err
			}
			x := newExports(cfg, newLogger(cfg.LogLevel))
			defer x.Destroy()
			models, err := x.ListModels()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tQUANT\tPATH")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Quant, m.Path)
			}
			return tw.Flush()
		},
	}
}

func readCmd(st *settings) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:     "read <name>",
		Short:   "Read a resource from the resources directory",
		Example: "  llamabridge read --resources-dir ./assets --mode callback greeting.txt",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.load(cmd)
			if err != nil {
				return err
			}
			x := newExports(cfg, newLogger(cfg.LogLevel))
			defer x.Destroy()
			text, err := host.NewService(x, defaultLoadOptions(cfg)).ReadResource(cmd.Context(), args[0], mode)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "promise", "Completion style: sync|callback|promise")
	return cmd
}

// loadedExports builds the host and loads the --model flag value.
func loadedExports(cmd *cobra.Command, st *settings, model string) (*host.Exports, error) {
	cfg, err := st.load(cmd)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = cfg.Model
	}
	if model == "" {
		return nil, fmt.Errorf("--model is required")
	}
	x := newExports(cfg, newLogger(cfg.LogLevel))
	if err := host.NewService(x, defaultLoadOptions(cfg)).Load(cmd.Context(), types.LoadRequest{Model: model}); err != nil {
		_ = x.Destroy()
		return nil, err
	}
	return x, nil
}

func generateCmd(st *settings) *cobra.Command {
	var (
		model  string
		stream bool
		args   host.GenerateArgs
	)
	cmd := &cobra.Command{
		Use:     "generate <prompt>",
		Short:   "Generate a completion for a prompt",
		Example: "  llamabridge generate --model tinyllama.Q4_K_M.gguf \"Write a haiku\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			x, err := loadedExports(cmd, st, model)
			if err != nil {
				return err
			}
			defer x.Destroy()
			prompt := strings.Join(argv, " ")
			out := cmd.OutOrStdout()
			if stream {
				_, err := x.Session().Generate(cmd.Context(), prompt, session.GenerateOptions{
					MaxTokens:   args.MaxTokens,
					Temperature: args.Temperature,
					TopP:        args.TopP,
					OnToken: func(tok string) error {
						_, err := fmt.Fprint(out, tok)
						return err
					},
				})
				fmt.Fprintln(out)
				return err
			}
			text, err := x.GenerateTextAsync(prompt, args).Await(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, text)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&model, "model", "", "Model ID or path")
	f.BoolVar(&stream, "stream", false, "Print tokens as they are produced")
	f.IntVar(&args.MaxTokens, "max-tokens", session.DefaultMaxTokens, "Maximum new tokens")
	f.Float32Var(&args.Temperature, "temperature", session.DefaultTemperature, "Sampling temperature")
	f.Float32Var(&args.TopP, "top-p", session.DefaultTopP, "Nucleus sampling probability")
	return cmd
}

func chatCmd(st *settings) *cobra.Command {
	var model, system string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat; /clear resets the history, /exit quits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := loadedExports(cmd, st, model)
			if err != nil {
				return err
			}
			defer x.Destroy()
			out := cmd.OutOrStdout()
			sc := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !sc.Scan() {
					fmt.Fprintln(out)
					return sc.Err()
				}
				line := strings.TrimSpace(sc.Text())
				switch line {
				case "":
					continue
				case "/exit", "/quit":
					return nil
				case "/clear":
					x.ClearChatHistory()
					fmt.Fprintln(out, "(history cleared)")
					continue
				}
				if reply := x.ChatCompletion(line, system); reply != "" {
					fmt.Fprintln(out, reply)
				} else {
					fmt.Fprintln(out, "error:", x.GetLastError())
				}
			}
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Model ID or path")
	cmd.Flags().StringVar(&system, "system", "", "System prompt rendered before the history")
	return cmd
}
