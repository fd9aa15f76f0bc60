/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	adapterrepo "github.com/eslsoft/vocsync/internal/adapter/repository"
	"github.com/eslsoft/vocsync/internal/infrastructure/config"
	"github.com/eslsoft/vocsync/internal/infrastructure/server"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Back-fill word definitions from a JSON file into the corpus cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			return fmt.Errorf("--file is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := server.NewLogger(cfg)

		raw, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read definitions file: %w", err)
		}
		var definitions map[string]string
		if err := json.Unmarshal(raw, &definitions); err != nil {
			return fmt.Errorf("parse definitions file: %w", err)
		}

		cache, err := adapterrepo.NewDefinitionCache(cfg.Corpus.CachePath)
		if err != nil {
			return err
		}
		defer cache.Close()

		corpus, err := adapterrepo.NewCorpus(cmd.Context(), cfg.Corpus.Path, cache, logger)
		if err != nil {
			return fmt.Errorf("load corpus: %w", err)
		}

		for word, definition := range definitions {
			if err := corpus.BackfillDefinition(cmd.Context(), word, definition); err != nil {
				return err
			}
		}
		logger.Infof("imported %d definitions", len(definitions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("file", "", "path to a JSON object of word -> definition")
}
