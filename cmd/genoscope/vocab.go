// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genoscope/internal/vocab"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Print the vocabulary used to parse questions",
	Long: `Vocab prints the organism, data type, condition, and stop-word tables as
YAML, or with --kind the flat list of phrases the parser recognizes for one
kind (organism, data_type, condition, stop_word).`,
	RunE: runVocab,
}

func init() {
	vocabCmd.Flags().String("kind", "", "list recognized phrases of one kind")

	rootCmd.AddCommand(vocabCmd)
}

func runVocab(cmd *cobra.Command, args []string) error {
	ix := vocab.Default()

	kindName, _ := cmd.Flags().GetString("kind")
	if kindName == "" {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(ix.Tables()); err != nil {
			return fmt.Errorf("encoding vocabulary: %w", err)
		}
		return enc.Close()
	}

	for _, k := range []vocab.Kind{vocab.KindOrganism, vocab.KindDataType, vocab.KindCondition, vocab.KindStopWord} {
		if k.String() == strings.ToLower(kindName) {
			for _, p := range ix.Phrases(k) {
				fmt.Println(p)
			}
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q (want organism, data_type, condition, or stop_word)", kindName)
}
