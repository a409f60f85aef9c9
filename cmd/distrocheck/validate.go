// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"distrocheck-cli/internal/findings"
	"distrocheck-cli/internal/runcheck"
)

var (
	manifestPath  string
	tarPath       string
	compareBranch string
	repoPath      string
	arm64         bool

	// validateCmd validates a manifest or a single image archive.
	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate a distribution manifest or a single image archive",
		Long: `Validate distributable root-filesystem images against the catalog manifest.

With --manifest, every distribution entry is validated: each architecture
artifact is fetched, hashed, inspected, and its digest compared against the
manifest-declared value. With --compare-with-branch, entries unchanged since
that revision are skipped.

With --tar, a single local archive is inspected without any manifest.

The command exits non-zero when at least one error-severity finding was
recorded; warnings never affect the exit status.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := findings.NewCollector()
			runner := runcheck.New(report)

			repo := repoPath
			if repo == "" {
				repo = cfg.RepoPath
			}
			err := runner.Run(cmd.Context(), runcheck.Options{
				ManifestPath:          manifestPath,
				TarPath:               tarPath,
				Arm64:                 arm64,
				CompareBranch:         compareBranch,
				RepoPath:              repo,
				ExtraDiscouragedUnits: cfg.DiscouragedUnits,
			})
			renderFindings(cmd.OutOrStdout(), report)
			if err != nil {
				return err
			}
			if report.HasErrors() {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
)

func init() {
	validateCmd.Flags().StringVar(&manifestPath, "manifest", "", "path to the distribution manifest JSON")
	validateCmd.Flags().StringVar(&tarPath, "tar", "", "path to a single image archive to validate")
	validateCmd.Flags().StringVar(&compareBranch, "compare-with-branch", "", "skip entries unchanged since this revision")
	validateCmd.Flags().StringVar(&repoPath, "repo-path", "", "repository root for baseline lookups (default from config)")
	validateCmd.Flags().BoolVar(&arm64, "arm64", false, "expect aarch64 binaries in --tar mode")
	validateCmd.MarkFlagsMutuallyExclusive("manifest", "tar")
}
