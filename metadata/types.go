package metadata

import (
	"context"
	"errors"
)

var (
	// ErrQueryTimeout is returned when a metadata query exceeds its deadline.
	ErrQueryTimeout = errors.New("metadata query timed out")
	// ErrQueryFailed is returned when the metadata source could not answer.
	ErrQueryFailed = errors.New("metadata query failed")
)

// Package describes the direct dependency edges of one installed distribution
type Package struct {
	Name       string   `json:"name"`
	Requires   []string `json:"requires"`
	RequiredBy []string `json:"required_by"`
	Found      bool     `json:"found"`
}

// Provider answers "package show" style queries for one environment.
// A package with no installed metadata is reported with Found == false and
// empty edge lists rather than an error.
type Provider interface {
	Lookup(ctx context.Context, name string) (Package, error)
}

// missing is the answer for a package without installed metadata
func missing(name string) Package {
	return Package{Name: NormalizeName(name), Requires: []string{}, RequiredBy: []string{}}
}
