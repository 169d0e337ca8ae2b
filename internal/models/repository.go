package models

import (
	"fmt"
	"strings"
)

// Repository identifies a watched repository on the hosting service.
// It is a comparable value: two repositories are equal when both fields match.
type Repository struct {
	Organization string
	Name         string
}

func NewRepository(organization, name string) Repository {
	return Repository{
		Organization: strings.TrimSpace(organization),
		Name:         strings.TrimSpace(name),
	}
}

// ParseRepository accepts the "org/name" form used on the command line.
func ParseRepository(s string) (Repository, error) {
	org, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || org == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("invalid repository %q, expected org/name", s)
	}
	return NewRepository(org, name), nil
}

func (r Repository) IsZero() bool {
	return r.Organization == "" || r.Name == ""
}

func (r Repository) String() string {
	return r.Organization + "/" + r.Name
}
