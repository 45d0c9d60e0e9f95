package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/vcf-converter/backend/internal/converter"
	"github.com/vcf-converter/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	convertContactName string
	convertProfile     string
	convertProfiles    string
	convertOutDir      string
	convertJobs        int
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert .txt phone lists to .vcf files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := converter.NewRegistry()
		if convertProfiles != "" {
			set, err := converter.ParseProfiles(convertProfiles)
			if err != nil {
				return fmt.Errorf("failed to load profiles: %w", err)
			}
			if err := registry.RegisterAll(set); err != nil {
				return err
			}
		}
		conv, err := registry.Get(convertProfile)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(convertOutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		results, err := convertFiles(cmd.Context(), conv, args, convertOutDir, convertContactName, convertJobs, logger)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d contacts)\n", r.Source, r.Output, r.Count)
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertContactName, "contact-name", "n", models.DefaultContactName, "Contact name prefix")
	convertCmd.Flags().StringVarP(&convertProfile, "profile", "p", converter.DefaultProfileName, "Conversion profile")
	convertCmd.Flags().StringVar(&convertProfiles, "profiles-file", "", "YAML file with extra profiles")
	convertCmd.Flags().StringVarP(&convertOutDir, "out-dir", "o", ".", "Output directory")
	convertCmd.Flags().IntVarP(&convertJobs, "jobs", "j", runtime.NumCPU(), "Files converted in parallel")
}

// convertResult describes one written file.
type convertResult struct {
	Source string
	Output string
	Count  int
}

// convertFiles converts every path into outDir. Results keep the input
// order. Inputs sharing a base name get " (n)" suffixed outputs. The first
// failure cancels the remaining conversions.
func convertFiles(ctx context.Context, conv *converter.Converter, paths []string, outDir, contactName string, jobs int, logger *zap.Logger) ([]convertResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if jobs < 1 {
		jobs = 1
	}

	outputs := outputPaths(paths, outDir)
	results := make([]convertResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := convertFile(conv, path, outputs[i], contactName)
			if err != nil {
				return err
			}
			logger.Debug("converted",
				zap.String("source", path),
				zap.String("output", res.Output),
				zap.Int("cards", res.Count),
			)
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// outputPaths resolves the destination of every input before any is written.
func outputPaths(paths []string, outDir string) []string {
	seen := make(map[string]int)
	outputs := make([]string, len(paths))
	for i, path := range paths {
		outputs[i] = filepath.Join(outDir, converter.UniqueName(converter.VCFName(path), seen))
	}
	return outputs
}

func convertFile(conv *converter.Converter, path, out, contactName string) (convertResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return convertResult{}, err
	}
	defer f.Close()

	content, err := converter.ReadText(f)
	if err != nil {
		return convertResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	file := conv.Convert(content, converter.VCFName(path), contactName)
	if err := os.WriteFile(out, []byte(file.Content), 0644); err != nil {
		return convertResult{}, fmt.Errorf("failed to write %s: %w", out, err)
	}

	return convertResult{Source: path, Output: out, Count: file.Count}, nil
}
