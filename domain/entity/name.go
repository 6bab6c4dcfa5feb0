// Package entity models the portal entities that can carry embeddings.
package entity

import (
	"errors"
	"fmt"
)

// ErrUnsupportedEntity indicates an entity name outside the allow-list.
var ErrUnsupportedEntity = errors.New("entity not supported for embeddings")

// UnsupportedEntityError reports the rejected entity name.
type UnsupportedEntityError struct {
	name string
}

// NewUnsupportedEntityError creates an UnsupportedEntityError.
func NewUnsupportedEntityError(name string) *UnsupportedEntityError {
	return &UnsupportedEntityError{name: name}
}

// Name returns the rejected entity name.
func (e *UnsupportedEntityError) Name() string { return e.name }

// Error implements error.
func (e *UnsupportedEntityError) Error() string {
	return fmt.Sprintf("Entity %s not supported for embeddings", e.name)
}

// Is makes the error match ErrUnsupportedEntity.
func (e *UnsupportedEntityError) Is(target error) bool {
	return target == ErrUnsupportedEntity
}

// Name identifies one of the embeddable entity kinds.
type Name string

// Supported entity kinds.
const (
	Challenge    Name = "Challenge"
	Solution     Name = "Solution"
	Pilot        Name = "Pilot"
	RDProject    Name = "RDProject"
	Program      Name = "Program"
	Organization Name = "Organization"
	CitizenIdea  Name = "CitizenIdea"
)

var names = []Name{
	Challenge,
	Solution,
	Pilot,
	RDProject,
	Program,
	Organization,
	CitizenIdea,
}

// Names returns the allow-list in a stable order.
func Names() []Name {
	result := make([]Name, len(names))
	copy(result, names)
	return result
}

// ParseName validates s against the allow-list.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", &UnsupportedEntityError{name: s}
	}
	return n, nil
}

// Valid reports whether the name is in the allow-list.
func (n Name) Valid() bool {
	_, err := n.layout()
	return err == nil
}

// String returns the entity name.
func (n Name) String() string { return string(n) }

// Table returns the storage table for the entity kind.
func (n Name) Table() string {
	s, err := n.layout()
	if err != nil {
		return ""
	}
	return s.table
}

// Fields returns the ordered field names used to compose embedding text.
func (n Name) Fields() []string {
	s, err := n.layout()
	if err != nil {
		return nil
	}
	result := make([]string, len(s.fields))
	copy(result, s.fields)
	return result
}

// kindLayout describes how one entity kind is stored and composed.
type kindLayout struct {
	table  string
	fields []string
}

// layout is the single dispatch point over the closed set of kinds.
// Adding a kind means adding a constant, a names entry and a case here.
func (n Name) layout() (kindLayout, error) {
	switch n {
	case Challenge:
		return kindLayout{
			table:  "challenges",
			fields: []string{"title_en", "title_ar", "description_en", "description_ar", "problem_statement_en", "sector", "keywords"},
		}, nil
	case Solution:
		return kindLayout{
			table:  "solutions",
			fields: []string{"name_en", "name_ar", "description_en", "description_ar", "provider_name", "sectors", "features"},
		}, nil
	case Pilot:
		return kindLayout{
			table:  "pilots",
			fields: []string{"title_en", "title_ar", "description_en", "description_ar", "objective_en", "hypothesis", "sector"},
		}, nil
	case RDProject:
		return kindLayout{
			table:  "rd_projects",
			fields: []string{"title_en", "title_ar", "abstract_en", "abstract_ar", "research_area", "keywords"},
		}, nil
	case Program:
		return kindLayout{
			table:  "programs",
			fields: []string{"name_en", "name_ar", "description_en", "description_ar", "program_type", "focus_areas"},
		}, nil
	case Organization:
		return kindLayout{
			table:  "organizations",
			fields: []string{"name_en", "name_ar", "description_en", "description_ar", "organization_type", "sectors"},
		}, nil
	case CitizenIdea:
		return kindLayout{
			table:  "citizen_ideas",
			fields: []string{"title", "description", "category", "tags"},
		}, nil
	}
	return kindLayout{}, &UnsupportedEntityError{name: string(n)}
}
