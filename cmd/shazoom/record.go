package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"

	"shazoom/internal/match"
)

var recordSeconds float64

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the default microphone and recognize it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := buildEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		sr := e.Params().Spectrogram.SR

		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("initializing microphone: %w", err)
		}
		defer portaudio.Terminate()

		var mu sync.Mutex
		var pcm []float64

		callback := func(in []int32) {
			mu.Lock()
			defer mu.Unlock()
			for _, s := range in {
				pcm = append(pcm, float64(s)/float64(1<<31))
			}
		}

		stream, err := portaudio.OpenDefaultStream(1, 0, float64(sr), 0, callback)
		if err != nil {
			return fmt.Errorf("opening microphone stream: %w", err)
		}
		defer stream.Close()

		fmt.Println(color.CyanString("recording for %.1fs...", recordSeconds))
		if err := stream.Start(); err != nil {
			return fmt.Errorf("starting microphone stream: %w", err)
		}
		time.Sleep(time.Duration(recordSeconds * float64(time.Second)))
		if err := stream.Stop(); err != nil {
			return fmt.Errorf("stopping microphone stream: %w", err)
		}

		mu.Lock()
		captured := pcm
		mu.Unlock()

		result, err := e.Recognize(ctx, captured)
		switch {
		case errors.Is(err, match.ErrEmptyIndex):
			fmt.Println(color.YellowString("the index is empty; ingest some tracks first"))
			return nil
		case errors.Is(err, match.ErrNoMatch):
			fmt.Println(color.YellowString("no match found"))
			return nil
		case err != nil:
			return fmt.Errorf("recognizing recording: %w", err)
		}

		fmt.Println(color.GreenString("match: %s", result.TrackName))
		fmt.Printf("  confidence: %.1f%%\n", result.Confidence*100)
		return nil
	},
}

func init() {
	recordCmd.Flags().Float64Var(&recordSeconds, "seconds", 8, "seconds to record before recognizing")
	rootCmd.AddCommand(recordCmd)
}
