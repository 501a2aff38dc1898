package models

// SpecificationDefinition is a named attribute that applies to every product
// of a category ("Color", "Weight"). Read-only from the editor's side.
type SpecificationDefinition struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id,omitempty"`
}

// SpecificationValue is a value already recorded for a product. The current
// backend identifies the definition only by Name; SpecificationID is filled
// only by backends that expose it.
type SpecificationValue struct {
	ID              int64  `json:"id"`
	ProductID       int64  `json:"product_id,omitempty"`
	SpecificationID int64  `json:"specification_id,omitempty"`
	Name            string `json:"name"`
	Value           string `json:"value"`
}

// NewSpecificationValue is the payload of POST /p_specification.
type NewSpecificationValue struct {
	ProductID       int64  `json:"product_id"`
	SpecificationID int64  `json:"specification_id"`
	Value           string `json:"value"`
}

// SpecificationValueUpdate is the payload of PUT /p_specification/{id}.
type SpecificationValueUpdate struct {
	ProductID int64  `json:"product_id"`
	Value     string `json:"value"`
}

// NewSpecificationDefinition is the payload of POST /specifications/add.
type NewSpecificationDefinition struct {
	Name       string `json:"name"        validate:"required,max=100"`
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
}

// WorkingValues maps specification definition id to the string the user
// entered. Empty strings mean "no value entered".
type WorkingValues map[int64]string

// Clone returns an independent copy.
func (w WorkingValues) Clone() WorkingValues {
	out := make(WorkingValues, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
