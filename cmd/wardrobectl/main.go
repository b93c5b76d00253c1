package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"wardrobewiz/config"
	"wardrobewiz/jsonutil"
	"wardrobewiz/logging"
	"wardrobewiz/services"
	"wardrobewiz/stylist"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	modelFlag   string
	timeoutFlag time.Duration
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "wardrobectl",
	Short: "Debug tools for the wardrobe stylist",
	Long: `wardrobectl runs the stylist prompts outside the API so model replies
can be inspected by hand.

Examples:
  wardrobectl analyze ./photos/jacket.jpg
  wardrobectl analyze -m gemini-2.5-pro ./photos/jacket.jpg
  wardrobectl parse reply.txt
  pbpaste | wardrobectl parse -`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verboseFlag {
			level = "debug"
		}
		logging.Init(level, true)
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Extract garment metadata from an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Extract the JSON value from a saved model reply",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging")
	analyzeCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (defaults to GEMINI_MODEL)")
	analyzeCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Model call timeout (defaults to MODEL_TIMEOUT)")
	rootCmd.AddCommand(analyzeCmd, parseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Model.APIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY is not set")
	}
	model := cfg.Model.Name
	if modelFlag != "" {
		model = modelFlag
	}
	timeout := cfg.Model.Timeout
	if timeoutFlag > 0 {
		timeout = timeoutFlag
	}

	modelName, ok := services.LookupLLMModelName(model)
	if !ok {
		return fmt.Errorf("unsupported model %q", model)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	mimeType, _, err := services.DetectImageType(data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	llm, err := services.NewGoogleLLMProcessor(ctx, cfg.Model.APIKey)
	if err != nil {
		return fmt.Errorf("gemini client: %w", err)
	}
	sty := stylist.New(llm, modelName, timeout)

	log.Debug().Str("file", args[0]).Str("mime", mimeType).Str("model", model).Msg("analyzing")
	metadata, err := sty.ExtractMetadata(ctx, data, mimeType)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), metadata)
}

func runParse(cmd *cobra.Command, args []string) error {
	var (
		raw []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return err
	}
	value, err := jsonutil.Parse(string(raw))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), value)
}
