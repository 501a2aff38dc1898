package services

import "github.com/shashiranjanraj/storeadmin/app/models"

// Lookup finds the existing value recorded for a definition.
type Lookup func(def models.SpecificationDefinition) (models.SpecificationValue, bool)

// Matcher decides which existing value record belongs to which definition.
type Matcher interface {
	Build(existing []models.SpecificationValue) Lookup
}

// NameMatcher pairs records with definitions by exact name, because the
// existing-values endpoint returns records keyed by name only. Two
// definitions sharing a name, or a renamed definition, attach to the wrong
// record. The first record with a given name wins.
type NameMatcher struct{}

func (NameMatcher) Build(existing []models.SpecificationValue) Lookup {
	byName := make(map[string]models.SpecificationValue, len(existing))
	for _, v := range existing {
		if _, dup := byName[v.Name]; !dup {
			byName[v.Name] = v
		}
	}
	return func(def models.SpecificationDefinition) (models.SpecificationValue, bool) {
		v, ok := byName[def.Name]
		return v, ok
	}
}

// IDMatcher pairs records with definitions by specification id. It only
// works against a backend that fills SpecificationValue.SpecificationID.
type IDMatcher struct{}

func (IDMatcher) Build(existing []models.SpecificationValue) Lookup {
	byID := make(map[int64]models.SpecificationValue, len(existing))
	for _, v := range existing {
		if v.SpecificationID == 0 {
			continue
		}
		if _, dup := byID[v.SpecificationID]; !dup {
			byID[v.SpecificationID] = v
		}
	}
	return func(def models.SpecificationDefinition) (models.SpecificationValue, bool) {
		v, ok := byID[def.ID]
		return v, ok
	}
}
