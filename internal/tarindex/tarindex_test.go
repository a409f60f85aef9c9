// SPDX-License-Identifier: MPL-2.0

package tarindex

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"

	"distrocheck-cli/internal/testutil"
)

func newIndex(t *testing.T, members []testutil.TarMember) *Index {
	t.Helper()
	idx, err := New(bytes.NewReader(testutil.BuildTar(t, members)))
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return idx
}

func TestResolveRootPrefixVariants(t *testing.T) {
	idx := newIndex(t, []testutil.TarMember{
		{Name: "./etc/passwd", Mode: 0o644, Content: []byte("root:x:0:0::/root:/bin/sh\n")},
		{Name: "/etc/hostname", Mode: 0o644, Content: []byte("img\n")},
		{Name: "etc/hosts", Mode: 0o644, Content: []byte("127.0.0.1 localhost\n")},
	})

	for _, p := range []string{"/etc/passwd", "/etc/hostname", "/etc/hosts"} {
		if _, ok := idx.Resolve(p); !ok {
			t.Errorf("expected %q to resolve", p)
		}
	}

	// Both encodings of the same logical path must return the same entry.
	bare, _ := idx.Resolve("/etc/passwd")
	dotted, ok := idx.Resolve("./etc/passwd")
	if !ok || bare != dotted {
		t.Error("expected bare and dot-rooted lookups to return the same entry")
	}

	if _, ok := idx.Resolve("/etc/missing"); ok {
		t.Error("expected /etc/missing to be absent")
	}
}

func TestResolveEntryAttributes(t *testing.T) {
	idx := newIndex(t, []testutil.TarMember{
		{Name: "./etc/shadow", Mode: 0o640, UID: 0, GID: 42, Content: []byte("root:*::::::\n")},
	})

	e, ok := idx.Resolve("/etc/shadow")
	if !ok {
		t.Fatal("expected /etc/shadow to resolve")
	}
	if e.Mode != 0o640 {
		t.Errorf("expected mode 0640, got %04o", e.Mode)
	}
	if e.UID != 0 || e.GID != 42 {
		t.Errorf("unexpected ownership: uid=%d gid=%d", e.UID, e.GID)
	}
	if e.IsSymlink || e.IsDir {
		t.Errorf("unexpected type flags: %+v", e)
	}
}

func TestList(t *testing.T) {
	idx := newIndex(t, []testutil.TarMember{
		{Name: "./usr/lib/systemd/system/multi-user.target.wants", Mode: 0o755, Dir: true},
		{Name: "./usr/lib/systemd/system/multi-user.target.wants/ssh.service", Mode: 0o777, Link: "../ssh.service"},
		{Name: "/usr/lib/systemd/system/sysinit.target.wants", Mode: 0o755, Dir: true},
	})

	got := idx.List("/usr/lib/systemd/system")
	want := map[string]bool{
		"multi-user.target.wants":             true,
		"multi-user.target.wants/ssh.service": true,
		"sysinit.target.wants":                true,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %v", len(want), got)
	}
	for _, name := range got {
		if !want[name] {
			t.Errorf("unexpected listing entry %q", name)
		}
	}
}

func TestFollowLink(t *testing.T) {
	idx := newIndex(t, []testutil.TarMember{
		{Name: "./bin/bash", Mode: 0o755, Content: []byte("binary")},
		{Name: "./bin/sh", Mode: 0o777, Link: "bash"},
		{Name: "./usr/bin/zsh", Mode: 0o777, Link: "/bin/sh"},
		{Name: "./bin/dangling", Mode: 0o777, Link: "/does/not/exist"},
	})

	sh, _ := idx.Resolve("/bin/sh")
	res := idx.FollowLink(sh)
	if res.State != ResolutionFound {
		t.Fatalf("expected relative link to resolve, got state %d", res.State)
	}
	if res.Entry.Name != "./bin/bash" {
		t.Errorf("expected /bin/sh to resolve to bash, got %q", res.Entry.Name)
	}

	// Absolute target, two hops: /usr/bin/zsh -> /bin/sh -> bash.
	zsh, _ := idx.Resolve("/usr/bin/zsh")
	res = idx.FollowLink(zsh)
	if res.State != ResolutionFound || res.Entry.Name != "./bin/bash" {
		t.Errorf("expected chained resolution to land on bash, got %+v", res)
	}

	dangling, _ := idx.Resolve("/bin/dangling")
	res = idx.FollowLink(dangling)
	if res.State != ResolutionNotFound {
		t.Errorf("expected dangling link to report not-found, got state %d", res.State)
	}
	if res.Target != "/does/not/exist" {
		t.Errorf("unexpected target %q", res.Target)
	}
}

func TestFollowLinkCycle(t *testing.T) {
	idx := newIndex(t, []testutil.TarMember{
		{Name: "./a", Mode: 0o777, Link: "b"},
		{Name: "./b", Mode: 0o777, Link: "a"},
	})

	a, _ := idx.Resolve("/a")
	res := idx.FollowLink(a)
	if res.State != ResolutionCycle {
		t.Fatalf("expected cycle detection, got state %d", res.State)
	}
}

func TestExtract(t *testing.T) {
	idx := newIndex(t, []testutil.TarMember{
		{Name: "./etc/os-release", Mode: 0o644, Content: []byte("ID=test\n")},
	})

	e, _ := idx.Resolve("/etc/os-release")
	content, err := idx.Extract(e)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(content) != "ID=test\n" {
		t.Errorf("unexpected content %q", content)
	}

	// Extraction re-scans, so a second read must work too.
	if _, err := idx.Extract(e); err != nil {
		t.Errorf("second extract failed: %v", err)
	}
}

func TestExtractDuplicateMemberLastWins(t *testing.T) {
	idx := newIndex(t, []testutil.TarMember{
		{Name: "./etc/hostname", Mode: 0o644, Content: []byte("old\n")},
		{Name: "./etc/hostname", Mode: 0o644, Content: []byte("new\n")},
	})

	e, _ := idx.Resolve("/etc/hostname")
	content, err := idx.Extract(e)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(content) != "new\n" {
		t.Errorf("expected the later duplicate to win, got %q", content)
	}
}

func TestGzipCompressedArchive(t *testing.T) {
	raw := testutil.BuildTar(t, []testutil.TarMember{
		{Name: "./etc/passwd", Mode: 0o644, Content: []byte("root:x:0:0::/root:/bin/sh\n")},
	})

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	idx, err := New(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("build index from gzip stream: %v", err)
	}
	e, ok := idx.Resolve("/etc/passwd")
	if !ok {
		t.Fatal("expected /etc/passwd in compressed archive")
	}
	content, err := idx.Extract(e)
	if err != nil {
		t.Fatalf("extract from compressed archive: %v", err)
	}
	if len(content) == 0 {
		t.Error("expected non-empty content")
	}
}
