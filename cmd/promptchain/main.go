package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zen-systems/promptchain/pkg/adapter"
	"github.com/zen-systems/promptchain/pkg/config"
	"github.com/zen-systems/promptchain/pkg/evidence"
	"github.com/zen-systems/promptchain/pkg/gate"
	"github.com/zen-systems/promptchain/pkg/pipeline"
	"github.com/zen-systems/promptchain/pkg/tools"
	"github.com/zen-systems/promptchain/pkg/transcribe"
	"github.com/zen-systems/promptchain/pkg/workflow"
)

var (
	adapterFlag string
	modelFlag   string
	configFile  string
	evidenceDir string
	verboseFlag bool
	logger      zerolog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promptchain",
		Short: "LLM workflow runner with chained, routed, and guarded calendar flows",
		Long: `Promptchain runs structured LLM workflows over a single provider:
	a validated prompt chain, a classification router, parallel guardrails,
	tool-calling Q&A, and a speech-to-text gateway.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verboseFlag {
				level = zerolog.DebugLevel
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).
				With().Timestamp().Logger()
		},
	}

	rootCmd.PersistentFlags().StringVar(&adapterFlag, "adapter", "", "provider adapter (google, anthropic, openai, mock)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override model")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (defaults to ~/.promptchain/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&evidenceDir, "evidence-dir", "", "write per-run evidence under this directory")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(chainCmd())
	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(guardCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func chainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chain [input]",
		Short: "Run the validated calendar chain: extract, gate, detail, confirm",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(args)
			if err != nil {
				return err
			}
			writer, opts, err := setupEvidence("chain", input)
			if err != nil {
				return err
			}
			flows, _, err := buildFlows(opts...)
			if err != nil {
				return err
			}
			outcome := flows.ProcessChain(context.Background(), input)
			return emit(writer, outcome)
		},
	}
}

func routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route [input]",
		Short: "Classify a calendar request and dispatch it to the matching handler",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(args)
			if err != nil {
				return err
			}
			writer, opts, err := setupEvidence("route", input)
			if err != nil {
				return err
			}
			flows, _, err := buildFlows(opts...)
			if err != nil {
				return err
			}
			outcome := flows.ProcessRoute(context.Background(), input)
			return emit(writer, outcome)
		},
	}
}

func guardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guard [input]",
		Short: "Run the parallel calendar and security guardrails over the input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(args)
			if err != nil {
				return err
			}
			writer, opts, err := setupEvidence("guard", input)
			if err != nil {
				return err
			}
			flows, _, err := buildFlows(opts...)
			if err != nil {
				return err
			}
			outcome := flows.ValidateRequest(context.Background(), input)
			if writer != nil {
				if err := writer.WriteBranches(outcome); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Evidence: %s\n", writer.RunDir())
			}
			return printJSON(outcome)
		},
	}
}

func askCmd() *cobra.Command {
	var kbPath string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question, letting the model call the registered tools",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := readInput(args)
			if err != nil {
				return err
			}
			flows, _, err := buildFlows()
			if err != nil {
				return err
			}

			registry := tools.NewRegistry()
			registry.Register(tools.WeatherTool())
			if kbPath != "" {
				kb, err := tools.LoadKnowledgeBase(kbPath)
				switch {
				case errors.Is(err, os.ErrNotExist):
					logger.Debug().Str("path", kbPath).Msg("knowledge base not found, skipping")
				case err != nil:
					return fmt.Errorf("failed to load knowledge base: %w", err)
				default:
					registry.Register(kb.Tool())
				}
			}

			answer, err := flows.Ask(context.Background(), question, registry)
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		},
	}

	cmd.Flags().StringVar(&kbPath, "kb", "kb.json", "knowledge base JSON path (empty disables)")
	return cmd
}

func serveCmd() *cobra.Command {
	var addrFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the speech-to-text gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			client, err := transcribe.NewClient(cfg.TranscribeBaseURL, cfg.TranscribeAPIKey,
				transcribe.WithClientLogger(logger.With().Str("component", "transcribe-client").Logger()))
			if err != nil {
				return err
			}

			server := transcribe.NewServer(client,
				transcribe.WithWebhookSecret(cfg.WebhookSecret),
				transcribe.WithPublicBaseURL(cfg.PublicBaseURL),
				transcribe.WithServerLogger(logger.With().Str("component", "transcribe-server").Logger()))

			addr := cfg.ListenAddr
			if addrFlag != "" {
				addr = addrFlag
			}

			logger.Info().Str("addr", addr).Msg("listening")
			return http.ListenAndServe(addr, server.Routes())
		},
	}

	cmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (overrides config)")
	return cmd
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFromFile(configFile)
	}
	return config.Load()
}

func buildFlows(extra ...workflow.Option) (*workflow.Flows, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	ad, err := createAdapter(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []workflow.Option{
		workflow.WithLogger(logger.With().Str("component", "workflow").Logger()),
		workflow.WithThresholds(cfg.Thresholds.Chain, cfg.Thresholds.Route, cfg.Thresholds.Guard),
	}
	if modelFlag != "" {
		opts = append(opts, workflow.WithModel(modelFlag))
	}
	opts = append(opts, extra...)

	return workflow.New(ad, opts...), cfg, nil
}

func createAdapter(cfg *config.Config) (adapter.Adapter, error) {
	name := adapterFlag
	if name == "" {
		switch {
		case cfg.HasAdapter("google"):
			name = "google"
		case cfg.HasAdapter("anthropic"):
			name = "anthropic"
		case cfg.HasAdapter("openai"):
			name = "openai"
		default:
			return nil, fmt.Errorf("no API key configured; set GOOGLE_API_KEY, ANTHROPIC_API_KEY, or OPENAI_API_KEY")
		}
	}

	switch name {
	case "google":
		return adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
	case "anthropic":
		return adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
	case "openai":
		return adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
	case "mock":
		return adapter.NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q", name)
	}
}

func readInput(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	input := strings.TrimSpace(string(data))
	if input == "" {
		return "", fmt.Errorf("input is required")
	}
	return input, nil
}

func emit(writer *evidence.Writer, outcome any) error {
	if writer != nil {
		if err := writer.WriteOutcome(outcome); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Evidence: %s\n", writer.RunDir())
	}
	return printJSON(outcome)
}

// setupEvidence creates the run's evidence writer and the observer option
// that streams stage results and gate decisions into it. Both are nil when
// --evidence-dir is unset.
func setupEvidence(flow, input string) (*evidence.Writer, []workflow.Option, error) {
	if evidenceDir == "" {
		return nil, nil, nil
	}
	writer, err := newEvidenceWriter(flow, input)
	if err != nil {
		return nil, nil, err
	}
	obs := &evidenceObserver{writer: writer}
	return writer, []workflow.Option{workflow.WithObserver(obs)}, nil
}

// evidenceObserver forwards workflow observations to the evidence writer.
// Write failures are logged, never fatal; evidence must not abort a run.
type evidenceObserver struct {
	writer *evidence.Writer
}

func (o *evidenceObserver) ObserveStage(res *pipeline.Result) {
	if err := o.writer.WriteStage(res); err != nil {
		logger.Warn().Err(err).Str("stage", res.Stage).Msg("failed to write stage evidence")
	}
}

func (o *evidenceObserver) ObserveGate(stage string, decision gate.Decision) {
	if err := o.writer.WriteGate(stage, decision.Passed, decision.Evidence); err != nil {
		logger.Warn().Err(err).Str("stage", stage).Msg("failed to write gate evidence")
	}
}

func newEvidenceWriter(flow, input string) (*evidence.Writer, error) {
	writer, err := evidence.NewWriter(evidenceDir)
	if err != nil {
		return nil, err
	}
	record := evidence.RunRecord{Flow: flow, Adapter: adapterFlag, Model: modelFlag, Input: input}
	if err := writer.WriteRun(record); err != nil {
		return nil, err
	}
	return writer, nil
}

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
