// SPDX-License-Identifier: MPL-2.0

// Package runcheck orchestrates one validation run: it loads the manifest,
// optionally diffs it against a baseline revision, and validates each
// distribution entry strictly sequentially — fetch, hash, archive
// inspection, digest verification — before moving to the next. Temporary
// storage acquired for an entry is released when that entry's validation
// exits, on success or failure.
package runcheck

import (
	"context"
	"errors"
	"os"
	"sort"

	"github.com/charmbracelet/log"

	"distrocheck-cli/internal/fetch"
	"distrocheck-cli/internal/findings"
	"distrocheck-cli/internal/imagecheck"
	"distrocheck-cli/internal/manifest"
	"distrocheck-cli/internal/tarindex"
)

// ErrNoInput is returned when neither a manifest nor a tar archive was given.
var ErrNoInput = errors.New("either a manifest or a tar archive is required")

type (
	// Options selects what to validate and how.
	Options struct {
		// ManifestPath points at the catalog manifest to validate.
		ManifestPath string
		// TarPath validates a single local archive instead of a manifest.
		TarPath string
		// Arm64 selects the aarch64 binary signature for --tar runs.
		Arm64 bool
		// CompareBranch is a baseline revision; entries unchanged since it
		// are skipped.
		CompareBranch string
		// RepoPath is the repository the baseline revision is read from.
		RepoPath string
		// ExtraDiscouragedUnits extends the built-in discouraged unit list.
		ExtraDiscouragedUnits []string
	}

	// Runner drives a validation run and records findings on its report.
	Runner struct {
		report *findings.Collector
	}
)

// New returns a Runner recording findings on report.
func New(report *findings.Collector) *Runner {
	return &Runner{report: report}
}

// Run validates either a single archive or a whole manifest, per opts.
// The returned error is fatal (unusable input, failed fetch); ordinary
// validation problems land on the findings report instead.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	if opts.TarPath != "" {
		return r.runTar(opts)
	}
	if opts.ManifestPath == "" {
		return ErrNoInput
	}
	return r.runManifest(ctx, opts)
}

func (r *Runner) runTar(opts Options) error {
	f, err := os.Open(opts.TarPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	idx, err := tarindex.New(f)
	if err != nil {
		return err
	}

	sig := imagecheck.SignatureELFAmd64
	if opts.Arm64 {
		sig = imagecheck.SignatureELFArm64
	}
	checker := imagecheck.New(idx, r.report, opts.TarPath, "", sig,
		imagecheck.WithDiscouragedUnits(opts.ExtraDiscouragedUnits))
	checker.Run()
	return nil
}

func (r *Runner) runManifest(ctx context.Context, opts Options) error {
	data, err := os.ReadFile(opts.ManifestPath)
	if err != nil {
		return err
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return err
	}
	manifest.ValidateSchema(data, m, r.report)

	var baseline map[string][]manifest.Entry
	if opts.CompareBranch != "" {
		baseline, err = manifest.LoadBaseline(opts.RepoPath, opts.CompareBranch)
		if err != nil {
			return err
		}
	}

	flavors := make([]string, 0, len(m.ModernDistributions))
	for flavor := range m.ModernDistributions {
		flavors = append(flavors, flavor)
	}
	sort.Strings(flavors)

	for _, flavor := range flavors {
		entries := m.ModernDistributions[flavor]
		for _, e := range entries {
			if e.Name == "" {
				r.report.Errorf(flavor, "", "found nameless distribution")
				continue
			}
			if baseline != nil {
				switch manifest.Classify(baseline[flavor], e) {
				case manifest.ChangeNew:
					log.Info("found new entry", "flavor", flavor, "distribution", e.Name)
				case manifest.ChangeModified:
					log.Info("found changed entry", "flavor", flavor, "distribution", e.Name)
				case manifest.ChangeUnchanged:
					log.Debug("entry is unchanged, skipping", "flavor", flavor, "distribution", e.Name)
					continue
				}
			}
			if err := r.checkEntry(ctx, flavor, e, opts); err != nil {
				return err
			}
		}
		manifest.CheckDefaults(flavor, entries, r.report)
	}
	return nil
}

func (r *Runner) checkEntry(ctx context.Context, flavor string, e manifest.Entry, opts Options) error {
	log.Info("reading information for distribution", "flavor", flavor, "distribution", e.Name)
	manifest.CheckEntry(flavor, e, r.report)

	urlFound := false
	if e.Amd64Url != nil {
		if err := r.checkURL(ctx, flavor, e.Name, e.Amd64Url, imagecheck.SignatureELFAmd64, opts); err != nil {
			return err
		}
		urlFound = true
	}
	if e.Arm64Url != nil {
		if err := r.checkURL(ctx, flavor, e.Name, e.Arm64Url, imagecheck.SignatureELFArm64, opts); err != nil {
			return err
		}
		urlFound = true
	}
	if !urlFound {
		r.report.Errorf(flavor, e.Name, "no URL found")
	}
	return nil
}

// checkURL validates one architecture artifact: fetch and hash it, inspect
// the archive, then verify the declared digest. A fetch failure is fatal;
// everything downstream reports findings.
func (r *Runner) checkURL(ctx context.Context, flavor, distro string, u *manifest.URLRef, elfSignature string, opts Options) error {
	res, err := fetch.Fetch(ctx, u.Url)
	if err != nil {
		return err
	}
	defer func() { _ = res.Close() }()

	idx, err := tarindex.New(res.Source)
	if err != nil {
		return err
	}
	checker := imagecheck.New(idx, r.report, flavor, distro, elfSignature,
		imagecheck.WithDiscouragedUnits(opts.ExtraDiscouragedUnits))
	checker.Run()

	fetch.VerifyDigest(r.report, flavor, distro, u.Url, u.Sha256, res.Digest)
	return nil
}
