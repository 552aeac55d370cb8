package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediarouter/internal/config"
	"mediarouter/internal/router"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		inPath    string
		inputKey  string
		outputKey string
		modeFlag  string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a single file through the handler chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := router.Simple
			modeOverride := config.ModeSimple
			if strings.EqualFold(modeFlag, "advanced") {
				mode = router.Advanced
				modeOverride = config.ModeAdvanced
			}

			rt, _, err := ctx.ensureRouter(cmd.Context(), &modeOverride)
			if err != nil {
				return fmt.Errorf("initialize router: %w", err)
			}
			defer ctx.close()

			registry := rt.Registry()
			input, ok := parseCLIOptionKey(registry, inputKey, true)
			if !ok {
				return fmt.Errorf("unknown --input option %q", inputKey)
			}
			target, ok := parseCLIOptionKey(registry, outputKey, mode == router.Advanced)
			if !ok {
				return fmt.Errorf("unknown --output option %q", outputKey)
			}

			data, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read %s: %w", inPath, err)
			}
			files := []router.File{{Name: inPath, Bytes: data}}

			progress := newCLIProgress()
			defer progress.finish()

			result, err := rt.Convert(cmd.Context(), files, input, target, progress)
			if err != nil {
				return err
			}

			if result.Outcome == router.OutcomePartial {
				fmt.Fprintf(cmd.ErrOrStderr(), "partial result: chain stopped at %s\n",
					result.Chain[len(result.Chain)-1].Format.MIME)
			}
			if len(result.Files) == 0 {
				return fmt.Errorf("conversion produced no output")
			}

			if err := os.WriteFile(outPath, result.Files[0].Bytes, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", outPath, humanize.Bytes(uint64(len(result.Files[0].Bytes))))
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "input file path")
	cmd.Flags().StringVar(&inputKey, "input", "", "input option key: handlerName:formatMime")
	cmd.Flags().StringVar(&outputKey, "output", "", "output option key: handlerName:formatMime (advanced) or formatMime (simple)")
	cmd.Flags().StringVar(&modeFlag, "mode", "simple", "search mode: simple or advanced")
	cmd.Flags().StringVar(&outPath, "out", "", "output file path")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// parseCLIOptionKey mirrors internal/host's key parsing so the CLI and
// HTTP surfaces resolve "handlerName:formatMime"/"formatMime" options
// identically.
func parseCLIOptionKey(registry *router.FormatRegistry, key string, requireHandler bool) (router.Option, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return router.Option{}, false
	}
	if handlerName, mime, ok := strings.Cut(key, ":"); ok {
		return registry.FindInputOption(handlerName, mime)
	}
	if requireHandler {
		return router.Option{}, false
	}
	for _, opt := range registry.Options() {
		if opt.Format.MIME == key && opt.Format.To {
			return opt, true
		}
	}
	return router.Option{}, false
}
