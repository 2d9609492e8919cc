package internalcheck

import (
	"fmt"
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

func TestCgoOnlyInNative(t *testing.T) {
	pkgs := load(t, packages.NeedName|packages.NeedFiles, module+"/...")

	fset := token.NewFileSet()
	var findings []string
	var nativeUsesCgo bool

	for _, pkg := range pkgs {
		files := append(append([]string(nil), pkg.GoFiles...), pkg.IgnoredFiles...)
		for _, path := range files {
			if !strings.HasSuffix(path, ".go") {
				continue
			}
			f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
			if err != nil {
				t.Fatalf("parse %s: %v", path, err)
			}
			for _, imp := range f.Imports {
				p, _ := strconv.Unquote(imp.Path.Value)
				if p != "C" {
					continue
				}
				if pkg.PkgPath == module+"/pkg/privid/internal/native" {
					nativeUsesCgo = true
					continue
				}
				findings = append(findings, fmt.Sprintf("%s: import \"C\" outside internal/native", filepath.Base(path)))
			}
		}
	}

	if len(findings) > 0 {
		t.Fatalf("cgo boundary violation:\n%s", strings.Join(findings, "\n"))
	}
	if !nativeUsesCgo {
		t.Fatalf("internal/native no longer imports \"C\"; the check is not seeing the bridge")
	}
}
