package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkrogh/tekstfix/pkg/errors"
)

// NewKBCommand creates the kb command group for the style guide knowledge
// base.
func NewKBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Administrer stilguide-opslag",
	}

	cmd.AddCommand(newKBStatsCommand(), newKBLookupCommand())
	return cmd
}

func newKBStatsCommand() *cobra.Command {
	flags := &commonFlags{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Vis status for stilguide-indekset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}

			kb, err := buildKnowledgeBase(cfg)
			if err != nil {
				return err
			}
			if kb == nil {
				return errors.New(errors.KnowledgeBaseUnavailable, "ingen stilguide konfigureret, brug --style-guide eller style_guide_path i konfigurationen")
			}

			stats, err := kb.Stats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Stilguide:     %s\n", stats.Path)
			fmt.Printf("Retningslinjer: %d i %d sektioner\n", stats.Chunks, stats.Sections)
			fmt.Printf("Indekseret:    %s\n", stats.BuiltAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Opslag:        %d-%d retningslinjer pr. tekst\n", stats.MinResults, stats.MaxResults)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "sti til konfigurationsfil")
	cmd.Flags().StringVar(&flags.styleGuide, "style-guide", "", "sti til stilguide i markdown")
	return cmd
}

func newKBLookupCommand() *cobra.Command {
	flags := &commonFlags{}

	cmd := &cobra.Command{
		Use:   "lookup <tekst>",
		Short: "Slå relevante retningslinjer op for en tekst",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}

			kb, err := buildKnowledgeBase(cfg)
			if err != nil {
				return err
			}
			if kb == nil {
				return errors.New(errors.KnowledgeBaseUnavailable, "ingen stilguide konfigureret, brug --style-guide eller style_guide_path i konfigurationen")
			}

			guidelines, err := kb.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if guidelines == "" {
				fmt.Println("Ingen relevante retningslinjer fundet.")
				return nil
			}
			fmt.Println(guidelines)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "sti til konfigurationsfil")
	cmd.Flags().StringVar(&flags.styleGuide, "style-guide", "", "sti til stilguide i markdown")
	return cmd
}
