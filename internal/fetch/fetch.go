// SPDX-License-Identifier: MPL-2.0

// Package fetch streams distribution artifacts through a content digest.
//
// A fetch produces a seekable byte stream for archive inspection together
// with the artifact's SHA-256 digest, computed while the bytes were first
// read so the artifact is never traversed twice. Local references stream
// straight from the file; remote references are spooled into a temporary
// file that is removed when the result is closed. Fetch failures are fatal
// for the entry being validated — without the artifact there is nothing
// left to inspect — while digest mismatches are ordinary error findings.
package fetch

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/opencontainers/go-digest"

	"distrocheck-cli/internal/findings"
)

type (
	// StatusError reports a non-success HTTP response while fetching an
	// artifact.
	StatusError struct {
		URL        string
		StatusCode int
		Status     string
	}

	// Result owns a fetched artifact: a seekable stream positioned at
	// offset 0 and the digest of its full content. Close releases the
	// backing storage (and deletes it, for remote fetches).
	Result struct {
		Source  io.ReadSeeker
		Digest  digest.Digest
		cleanup func() error
	}
)

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %s", e.URL, e.Status)
}

// Close releases the artifact's backing storage.
func (r *Result) Close() error {
	if r.cleanup == nil {
		return nil
	}
	return r.cleanup()
}

// Fetch retrieves the artifact behind ref, which is either a local path
// (bare or file://-prefixed) or a remote HTTP(S) URL. Each call owns its own
// digester, created before any byte is consumed.
func Fetch(ctx context.Context, ref string) (*Result, error) {
	if local, ok := localPath(ref); ok {
		return fetchLocal(local)
	}
	return fetchRemote(ctx, ref)
}

// localPath maps a reference to a filesystem path when it is not a remote
// URL. "file:///a/b" becomes "/a/b"; references without a scheme are used
// as-is.
func localPath(ref string) (string, bool) {
	if p, ok := strings.CutPrefix(ref, "file://"); ok {
		return p, true
	}
	if !strings.Contains(ref, "://") {
		return ref, true
	}
	return "", false
}

func fetchLocal(p string) (*Result, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}

	digester := digest.SHA256.Digester()
	if _, err := io.Copy(digester.Hash(), f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("hash artifact %q: %w", p, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rewind artifact %q: %w", p, err)
	}
	return &Result{Source: f, Digest: digester.Digest(), cleanup: f.Close}, nil
}

func fetchRemote(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	tmp, err := os.CreateTemp("", "distrocheck-*.tar")
	if err != nil {
		return nil, fmt.Errorf("create temporary artifact storage: %w", err)
	}
	cleanup := func() error {
		closeErr := tmp.Close()
		removeErr := os.Remove(tmp.Name())
		if closeErr != nil {
			return closeErr
		}
		return removeErr
	}

	digester := digest.SHA256.Digester()
	if _, err := io.Copy(io.MultiWriter(tmp, digester.Hash()), resp.Body); err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("rewind temporary artifact storage: %w", err)
	}

	log.Debug("downloaded artifact", "url", url, "path", tmp.Name())
	return &Result{Source: tmp, Digest: digester.Digest(), cleanup: cleanup}, nil
}

// VerifyDigest compares an artifact's computed digest against the
// manifest-declared hex value, which may carry a "0x" prefix. A missing,
// malformed or mismatching declaration is an error finding. Returns whether
// the digest matched.
func VerifyDigest(report *findings.Collector, flavor, distro, url, expected string, actual digest.Digest) bool {
	if expected == "" {
		report.Errorf(flavor, distro, "URL %q is missing a \"Sha256\" digest", url)
		return false
	}

	hexDigest := strings.TrimPrefix(strings.TrimPrefix(expected, "0x"), "0X")
	if _, err := hex.DecodeString(hexDigest); err != nil {
		report.Errorf(flavor, distro, "URL %q has an invalid Sha256 digest: %q", url, expected)
		return false
	}

	if !strings.EqualFold(hexDigest, actual.Encoded()) {
		report.Errorf(flavor, distro, "URL %q Sha256 does not match: expected %s, actual %s", url, hexDigest, actual.Encoded())
		return false
	}

	log.Info("artifact digest matches", "url", url, "sha256", actual.Encoded())
	return true
}
