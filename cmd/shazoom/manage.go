package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index size",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := buildEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		stats, err := e.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("tracks:       %d\n", stats.Tracks)
		fmt.Printf("fingerprints: %d\n", stats.Fingerprints)
		fmt.Printf("avg/track:    %.1f\n", stats.AvgFingerprintsPerTrack)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested track names",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := buildEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		names, err := e.List(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println(color.YellowString("no tracks ingested"))
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [track-name]",
	Short: "Delete a track and its fingerprints",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := buildEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		found, deleted, err := e.Delete(ctx, args[0])
		if err != nil {
			return err
		}
		if !found {
			fmt.Println(color.YellowString("no track named %q", args[0]))
			return nil
		}
		fmt.Println(color.GreenString("deleted %q: %d fingerprints removed", args[0], deleted))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every ingested track",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := buildEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Clear(ctx); err != nil {
			return err
		}
		fmt.Println(color.GreenString("index cleared"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, listCmd, deleteCmd, clearCmd)
}
