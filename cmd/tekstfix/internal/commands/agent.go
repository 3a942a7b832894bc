package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkrogh/tekstfix/pkg/analysis"
)

// NewAgentCommand creates the agent command for iterative correction with
// self-verification.
func NewAgentCommand() *cobra.Command {
	flags := &commonFlags{}
	var maxIterations int
	var threshold int

	cmd := &cobra.Command{
		Use:   "agent <fil> [fil...]",
		Short: "Ret dokumenter iterativt med selvverifikation",
		Long: `Kører den agentiske analyse: modellen retter teksten, vurderer sit eget
arbejde og gentager med den rettede tekst indtil kvaliteten er god nok
eller det maksimale antal iterationer er nået.`,
		Example: `  # Iterativ rettelse med standardindstillinger
  tekstfix agent rapport.txt

  # Flere iterationer og højere kvalitetskrav
  tekstfix agent --max-iterations 5 --threshold 95 rapport.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if maxIterations > 0 {
				cfg.Agentic.MaxIterations = maxIterations
			}
			if threshold > 0 {
				cfg.Agentic.QualityThreshold = threshold
			}
			if err := setupLogging(cfg); err != nil {
				return err
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
				analysis.WithMaxRetries(uint64(cfg.Analysis.MaxRetries)),
			}
			if kb != nil {
				opts = append(opts, analysis.WithKnowledgeBase(kb))
			}
			agent := analysis.NewAgenticAnalyzer(
				analysis.NewAnalyzer(llm, opts...),
				llm,
				cfg.Agentic.MaxIterations,
				cfg.Agentic.QualityThreshold,
			)

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

			ctx := cmd.Context()
			for i, path := range files {
				fmt.Printf("\n[%d/%d] Agentisk analyse: %s\n", i+1, len(files), shortName(path))

				result, err := agent.AnalyzeFile(ctx, path, func(iteration, max int, done bool, reasoning string) {
					status := "fortsætter"
					if done {
						status = "færdig"
					}
					fmt.Printf("  Iteration %d/%d: %s - %s\n", iteration, max, status, reasoning)
				})
				if err != nil {
					fmt.Printf("  FEJL: %v\n", err)
					continue
				}

				fmt.Printf("  Kvalitetsscore: %d/100 efter %d iteration(er)\n",
					result.FinalQualityScore, result.TotalIterations)
				fmt.Printf("  Rettelser i alt: %d\n", len(result.AllCorrections))

				savedPath, err := agent.SaveResult(ctx, result, cfg.Analysis.Overwrite)
				if err != nil {
					fmt.Printf("  FEJL ved gemning: %v\n", err)
					continue
				}
				fmt.Printf("  Gemt til: %s\n", shortName(savedPath))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "sti til konfigurationsfil")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "LLM provider (claude, openai, ollama)")
	cmd.Flags().StringVar(&flags.model, "model", "", "model-id for den valgte provider")
	cmd.Flags().StringVar(&flags.styleGuide, "style-guide", "", "sti til stilguide i markdown")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "overskriv originalfiler")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "maksimalt antal iterationer")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "kvalitetsscore (0-100) hvor løkken stopper")

	return cmd
}
