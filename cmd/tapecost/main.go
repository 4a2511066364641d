// Command tapecost inspects and maintains on-disk compiled-model caches.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tapecost-ml/tapecost/internal/record"
)

const version = "v0.1.0-dev"

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:           "tapecost",
		Short:         "Gauss-Newton cost approximation model cache tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("tapecost %s\n", version)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "inspect <model" + record.FileExt + ">",
		Short: "Print the header of a compiled model artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hdr, err := record.ReadHeader(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("name:        %s\n", hdr.Name)
			fmt.Printf("inputs:      %d\n", hdr.InputDim)
			fmt.Printf("outputs:     %d\n", hdr.OutputDim)
			fmt.Printf("fingerprint: %s\n", hdr.Fingerprint)
			fmt.Printf("created:     %s\n", hdr.CreatedAt)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "verify <folder>",
		Short: "Verify every compiled model artifact in a cache folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := filepath.Glob(filepath.Join(args[0], "*"+record.FileExt))
			if err != nil {
				return err
			}
			bad := 0
			for _, p := range paths {
				if _, err := record.ReadHeader(p); err != nil {
					log.Error().Str("path", p).Err(err).Msg("corrupt artifact")
					bad++
					continue
				}
				log.Info().Str("path", p).Msg("ok")
			}
			if bad > 0 {
				return fmt.Errorf("%d corrupt artifact(s)", bad)
			}
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
