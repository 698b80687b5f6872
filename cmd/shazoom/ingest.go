package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"shazoom/internal/decode"
)

var ingestDir bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path] [track-name]",
	Short: "Ingest a reference track (or a directory of tracks) into the index",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := buildEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if !ingestDir {
			name := filepath.Base(args[0])
			if len(args) == 2 {
				name = args[1]
			}
			pcm, err := decode.Decode(args[0], e.Params().Spectrogram.SR)
			if err != nil {
				return fmt.Errorf("decoding %s: %w", args[0], err)
			}
			n, err := e.Ingest(ctx, name, pcm)
			if err != nil {
				return fmt.Errorf("ingesting %s: %w", name, err)
			}
			fmt.Println(color.GreenString("ingested %q: %d fingerprints", name, n))
			return nil
		}

		entries, err := os.ReadDir(args[0])
		if err != nil {
			return fmt.Errorf("reading directory %s: %w", args[0], err)
		}

		var files []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext == ".wav" || ext == ".mp3" || ext == ".flac" {
				files = append(files, filepath.Join(args[0], entry.Name()))
			}
		}

		bar := progressbar.Default(int64(len(files)), "ingesting")
		for _, path := range files {
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			pcm, err := decode.Decode(path, e.Params().Spectrogram.SR)
			if err != nil {
				fmt.Println(color.YellowString("skipping %s: %v", path, err))
				_ = bar.Add(1)
				continue
			}
			if _, err := e.Ingest(ctx, name, pcm); err != nil {
				fmt.Println(color.YellowString("failed to ingest %s: %v", path, err))
			}
			_ = bar.Add(1)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDir, "dir", false, "treat path as a directory of audio files to ingest")
	rootCmd.AddCommand(ingestCmd)
}
