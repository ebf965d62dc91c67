package main

import "github.com/onyx-go/pawql/migrate"

// registry is the set of migrations this binary knows about. A real
// deployment imports its own migration package here and calls Register
// for each generated module; pawql has no mechanism to discover Go
// source files on disk at runtime (see migrate.Make's doc comment).
var registry = migrate.NewRegistry()
