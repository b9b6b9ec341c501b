package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"alltube/internal/extractor"
	"alltube/internal/video"
)

var flagJSON bool

var extractorsCmd = &cobra.Command{
	Use:   "extractors",
	Short: "List supported extractor backends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ext := extractor.New(cliConfig())
		names, err := ext.Extractors(context.Background())
		if err != nil {
			return err
		}

		if flagJSON {
			return json.NewEncoder(os.Stdout).Encode(names)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info URL",
	Short: "Print resolved metadata as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ext := extractor.New(cliConfig())
		v := video.New(ext, args[0], flagFormat, flagPassword)

		meta, err := v.Metadata(context.Background())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	},
}

func init() {
	extractorsCmd.Flags().BoolVarP(&flagJSON, "json", "j", false, "Output as JSON")
	rootCmd.AddCommand(extractorsCmd)
	rootCmd.AddCommand(infoCmd)
}
