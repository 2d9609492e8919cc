package internalcheck

import (
	"testing"

	"golang.org/x/tools/go/packages"
)

const module = "github.com/prividentity/cryptonets-go"

func load(t *testing.T, mode packages.LoadMode, patterns ...string) []*packages.Package {
	t.Helper()
	cfg := &packages.Config{
		Mode:       mode,
		BuildFlags: []string{"-tags=privid_native"},
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	for _, p := range pkgs {
		for _, e := range p.Errors {
			t.Logf("%s: %v", p.PkgPath, e)
		}
	}
	return pkgs
}
