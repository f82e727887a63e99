package pkgutil

import "testing"

func TestLoadPackagesFromSource(t *testing.T) {
	pkgs, err := LoadPackagesFromSource(`package main

func main() {
	println("hello")
}
`)
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 1 {
		t.Errorf("expected load result to contain 1 package, got: %d", len(pkgs))
	}
}
