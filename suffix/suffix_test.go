package suffix_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/protonpass/android-pass-sub021/suffix"
)

const sampleList = `// ===BEGIN ICANN DOMAINS===
// comment lines are ignored
tld
uk
co.uk
*.ck
!www.ck
公司.cn
cn

// ===END ICANN DOMAINS===
// ===BEGIN PRIVATE DOMAINS===
github.io
// ===END PRIVATE DOMAINS===
`

type lookupCase struct {
	domain string
	want   string
	found  bool
}

func runLookupCases(t *testing.T, l suffix.Lookup, cases []lookupCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.domain, func(t *testing.T) {
			got, found := l.PublicSuffix(tc.domain)
			if found != tc.found || got != tc.want {
				t.Fatalf("PublicSuffix(%q) = (%q, %v), want (%q, %v)", tc.domain, got, found, tc.want, tc.found)
			}
		})
	}
}

func TestSetLongestSuffix(t *testing.T) {
	set := suffix.NewSet("TLD", "uk", ".co.uk.", "")
	if set.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", set.Len())
	}

	runLookupCases(t, set, []lookupCase{
		{domain: "somedomain.tld", want: "tld", found: true},
		{domain: "account.login.somedomain.tld", want: "tld", found: true},
		{domain: "example.co.uk", want: "co.uk", found: true},
		{domain: "co.uk", want: "co.uk", found: true},
		{domain: "example.org", found: false},
		{domain: "notld", found: false},
	})
}

func TestSetNilAndEmpty(t *testing.T) {
	var set *suffix.Set
	if _, ok := set.PublicSuffix("example.tld"); ok {
		t.Fatal("nil set must not match")
	}
	if _, ok := suffix.NewSet().PublicSuffix("example.tld"); ok {
		t.Fatal("empty set must not match")
	}
}

func TestParseListRules(t *testing.T) {
	trie, err := suffix.ParseList(strings.NewReader(sampleList), suffix.ListOptions{})
	if err != nil {
		t.Fatalf("ParseList returned error: %v", err)
	}

	runLookupCases(t, trie, []lookupCase{
		{domain: "somedomain.tld", want: "tld", found: true},
		{domain: "www.example.co.uk", want: "co.uk", found: true},
		{domain: "example.uk", want: "uk", found: true},
		{domain: "foo.bar.ck", want: "bar.ck", found: true},
		{domain: "www.ck", want: "ck", found: true},
		{domain: "a.www.ck", want: "ck", found: true},
		{domain: "xn--55qx5d.cn", want: "xn--55qx5d.cn", found: true},
		{domain: "shop.xn--55qx5d.cn", want: "xn--55qx5d.cn", found: true},
		{domain: "user.github.io", found: false},
		{domain: "example.org", found: false},
	})
}

func TestParseListPrivateDomains(t *testing.T) {
	trie, err := suffix.ParseList(strings.NewReader(sampleList), suffix.ListOptions{IncludePrivate: true})
	if err != nil {
		t.Fatalf("ParseList returned error: %v", err)
	}
	got, ok := trie.PublicSuffix("user.github.io")
	if !ok || got != "github.io" {
		t.Fatalf("PublicSuffix(user.github.io) = (%q, %v), want github.io", got, ok)
	}
}

func TestParseListEmpty(t *testing.T) {
	_, err := suffix.ParseList(strings.NewReader("// only comments\n\n"), suffix.ListOptions{})
	if !errors.Is(err, suffix.ErrEmptyList) {
		t.Fatalf("expected ErrEmptyList, got %v", err)
	}
}

func TestTrieRejectsInvalidRules(t *testing.T) {
	trie := suffix.NewTrie()
	for _, rule := range []string{"", "*.", "!ck", "a..b", ".com", "foo.*.bar"} {
		if err := trie.AddRule(rule); !errors.Is(err, suffix.ErrInvalidRule) {
			t.Errorf("AddRule(%q) = %v, want ErrInvalidRule", rule, err)
		}
	}
	if trie.Len() != 0 {
		t.Fatalf("expected empty trie, got %d rules", trie.Len())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public_suffix_list.dat")
	if err := os.WriteFile(path, []byte(sampleList), 0o600); err != nil {
		t.Fatalf("write list: %v", err)
	}

	trie, err := suffix.LoadFile(path, suffix.ListOptions{})
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if got, _ := trie.PublicSuffix("example.co.uk"); got != "co.uk" {
		t.Fatalf("expected co.uk, got %q", got)
	}

	if _, err := suffix.LoadFile(filepath.Join(t.TempDir(), "missing.dat"), suffix.ListOptions{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEmbedded(t *testing.T) {
	runLookupCases(t, suffix.Embedded{}, []lookupCase{
		{domain: "www.example.co.uk", want: "co.uk", found: true},
		{domain: "proton.me", want: "me", found: true},
		{domain: "somedomain.notarealtld", found: false},
	})
}

func TestHolderSwap(t *testing.T) {
	h := suffix.NewHolder(nil)
	if _, ok := h.Snapshot().PublicSuffix("example.tld"); ok {
		t.Fatal("expected empty initial table")
	}

	h.Store(suffix.NewSet("tld"))
	if got, ok := h.Snapshot().PublicSuffix("example.tld"); !ok || got != "tld" {
		t.Fatalf("expected tld after Store, got (%q, %v)", got, ok)
	}
}

func TestZeroHolder(t *testing.T) {
	var h suffix.Holder
	if _, ok := h.Snapshot().PublicSuffix("example.tld"); ok {
		t.Fatal("zero Holder must serve an empty table")
	}

	h.Store(suffix.NewSet("tld"))
	if got, ok := h.Snapshot().PublicSuffix("example.tld"); !ok || got != "tld" {
		t.Fatalf("expected tld after Store, got (%q, %v)", got, ok)
	}
}

func TestHolderConcurrentAccess(t *testing.T) {
	h := suffix.NewHolder(suffix.NewSet("tld"))
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			h.Store(suffix.NewSet("tld", "co.uk"))
		}
	}()

	for r := 0; r < 10; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if _, ok := h.Snapshot().PublicSuffix("example.tld"); !ok {
					t.Error("snapshot lost the tld rule")
					return
				}
			}
		}()
	}

	wg.Wait()
}

func TestStaticSource(t *testing.T) {
	src := suffix.Static(nil)
	if src.Snapshot() == nil {
		t.Fatal("Static(nil) must serve a usable table")
	}
}
