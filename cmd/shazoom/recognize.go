package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shazoom/internal/decode"
	"shazoom/internal/match"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize [path]",
	Short: "Recognize an audio clip against the stored index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := buildEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		pcm, err := decode.Decode(args[0], e.Params().Spectrogram.SR)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", args[0], err)
		}

		result, err := e.Recognize(ctx, pcm)
		switch {
		case errors.Is(err, match.ErrEmptyIndex):
			fmt.Println(color.YellowString("the index is empty; ingest some tracks first"))
			return nil
		case errors.Is(err, match.ErrNoMatch):
			fmt.Println(color.YellowString("no match found"))
			return nil
		case err != nil:
			return fmt.Errorf("recognizing %s: %w", args[0], err)
		}

		fmt.Println(color.GreenString("match: %s", result.TrackName))
		fmt.Printf("  offset:     %.2fs\n", result.Offset)
		fmt.Printf("  votes:      %d / %d\n", result.Votes, result.QueryCount)
		fmt.Printf("  confidence: %.1f%%\n", result.Confidence*100)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
}
