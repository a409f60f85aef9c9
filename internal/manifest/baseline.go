// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// manifestRepoPath is where the catalog lives inside its repository.
const manifestRepoPath = "distributions/DistributionInfo.json"

// LoadBaseline reads the manifest as it exists at another revision (branch,
// tag or commit) of the repository at repoPath, for diffing the working
// manifest against it. Entries unchanged since the baseline can then be
// skipped during validation.
func LoadBaseline(repoPath, revision string) (map[string][]Entry, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %q: %w", repoPath, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", revision, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	file, err := commit.File(manifestRepoPath)
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", manifestRepoPath, revision, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", manifestRepoPath, revision, err)
	}

	m, err := Parse([]byte(contents))
	if err != nil {
		return nil, fmt.Errorf("baseline at %s: %w", revision, err)
	}
	return m.ModernDistributions, nil
}
