package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkrogh/tekstfix/cmd/tekstfix/internal/commands"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "tekstfix",
	Short: "LLM-baseret korrekturlæsning af danske dokumenter",
	Long: `tekstfix retter danske tekstdokumenter med en LLM.

Værktøjet læser TXT, PDF og Word-filer, sender indholdet til en sprogmodel
og gemmer den rettede tekst sammen med en liste af rettelser. En valgfri
stilguide kan kobles på, så rettelserne følger husets skrivestil.`,
	Version: version,
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Vis versionsnummer",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tekstfix %s\n", version)
		},
	}
}

func main() {
	rootCmd.AddCommand(
		commands.NewAnalyzeCommand(),
		commands.NewAgentCommand(),
		commands.NewKBCommand(),
		newVersionCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
