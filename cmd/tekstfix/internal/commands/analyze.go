package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkrogh/tekstfix/pkg/analysis"
	"github.com/mkrogh/tekstfix/pkg/document"
)

// NewAnalyzeCommand creates the analyze command for single-pass correction
// of files and folders.
func NewAnalyzeCommand() *cobra.Command {
	flags := &commonFlags{}
	var concurrency int
	var outputDir string

	cmd := &cobra.Command{
		Use:   "analyze <sti> [sti...]",
		Short: "Ret et eller flere dokumenter",
		Long: `Analyserer dokumenter og gemmer rettede udgaver.

Stier kan være enkelte filer eller mapper; mapper gennemsøges rekursivt for
understøttede formater (TXT, PDF, DOCX, DOC). Rettede filer gemmes med et
_corrected suffix medmindre --overwrite er sat.`,
		Example: `  # Ret en enkelt fil
  tekstfix analyze brev.txt

  # Ret alle dokumenter i en mappe, kun stavning
  tekstfix analyze --no-grammar --no-structure --no-clarity ./dokumenter

  # Brug OpenAI og overskriv originalerne
  tekstfix analyze --provider openai --overwrite rapport.docx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Analysis.Concurrency = concurrency
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			if outputDir != "" {
				if err := os.MkdirAll(outputDir, 0o755); err != nil {
					return fmt.Errorf("kan ikke oprette output-mappe: %w", err)
				}
			}

			llm, err := buildLLM(cfg)
			if err != nil {
				return err
			}
			kb, err := buildKnowledgeBase(cfg)
			if err != nil {
				return err
			}

			opts := []analysis.Option{
				analysis.WithAspects(analysis.Aspects{
					Grammar:   cfg.Analysis.Grammar,
					Spelling:  cfg.Analysis.Spelling,
					Structure: cfg.Analysis.Structure,
					Clarity:   cfg.Analysis.Clarity,
				}),
				analysis.WithConcurrency(cfg.Analysis.Concurrency),
				analysis.WithMaxRetries(uint64(cfg.Analysis.MaxRetries)),
			}
			if kb != nil {
				opts = append(opts, analysis.WithKnowledgeBase(kb))
			}
			analyzer := analysis.NewAnalyzer(llm, opts...)

			files, err := collectFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("Ingen understøttede dokumenter fundet.")
				return nil
			}

			fmt.Printf("Bruger: %s (%s)\n", llm.ProviderName(), llm.ModelID())
			fmt.Println(strings.Repeat("-", 50))
			fmt.Printf("\nAnalyserer %d fil(er)...\n\n", len(files))

			ctx := cmd.Context()
			analyzed, err := analyzer.AnalyzeFiles(ctx, files, func(current, total int, name string) {
				fmt.Printf("[%d/%d] Analyserer: %s\n", current, total, name)
			})
			if err != nil {
				return err
			}

			fmt.Println()
			var results []*analysis.Result
			for _, result := range analyzed {
				if result == nil {
					continue
				}
				results = append(results, result)

				fmt.Println(result.FileName)
				printCorrections(result)

				savedPath, err := saveResult(ctx, analyzer, result, outputDir, cfg.Analysis.Overwrite)
				if err != nil {
					fmt.Printf("  FEJL ved gemning: %v\n", err)
				} else {
					fmt.Printf("  Gemt til: %s\n", shortName(savedPath))
				}
				fmt.Println()
			}

			fmt.Println(strings.Repeat("-", 50))
			totalCorrections := 0
			for _, result := range results {
				totalCorrections += len(result.Corrections)
			}
			fmt.Printf("\nFærdig! Analyseret %d af %d filer.\n", len(results), len(files))
			fmt.Printf("Total rettelser: %d\n", totalCorrections)

			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "sti til konfigurationsfil")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "LLM provider (claude, openai, ollama)")
	cmd.Flags().StringVar(&flags.model, "model", "", "model-id for den valgte provider")
	cmd.Flags().StringVar(&flags.styleGuide, "style-guide", "", "sti til stilguide i markdown")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "overskriv originalfiler")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "antal samtidige analyser")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "gem rettede filer i denne mappe")
	cmd.Flags().BoolVar(&flags.noGrammar, "no-grammar", false, "spring grammatik over")
	cmd.Flags().BoolVar(&flags.noSpelling, "no-spelling", false, "spring stavning over")
	cmd.Flags().BoolVar(&flags.noStructure, "no-structure", false, "spring struktur over")
	cmd.Flags().BoolVar(&flags.noClarity, "no-clarity", false, "spring klarhed over")

	return cmd
}

// collectFiles expands the path arguments into a flat list of supported
// document files.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("filen findes ikke: %s", path)
		}
		if info.IsDir() {
			found, err := analysis.FindFiles(path)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}
		if !document.IsSupported(path) {
			fmt.Printf("Springer over (format ikke understøttet): %s\n", path)
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

// saveResult writes the corrected text. With an output directory the file
// keeps its original name there; otherwise it is saved next to the input
// with a _corrected suffix unless overwrite is set.
func saveResult(ctx context.Context, analyzer *analysis.Analyzer, result *analysis.Result, outputDir string, overwrite bool) (string, error) {
	if outputDir == "" {
		return analyzer.SaveCorrected(ctx, result, overwrite)
	}
	outputPath := filepath.Join(outputDir, filepath.Base(result.FilePath))
	return document.Write(ctx, outputPath, result.CorrectedText)
}

// printCorrections shows the correction count and a preview of the first
// three corrections.
func printCorrections(result *analysis.Result) {
	fmt.Printf("  Fundet: %d rettelser\n", len(result.Corrections))
	if len(result.Corrections) == 0 {
		return
	}

	fmt.Println("  Første 3 rettelser:")
	for i, corr := range result.Corrections {
		if i >= 3 {
			break
		}
		fmt.Printf("    %d. %s: '%s' -> '%s'\n", i+1, corr.Type, corr.Original, corr.Correction)
	}
}

func shortName(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}
