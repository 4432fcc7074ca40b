package domain

import (
	"encoding/json"
	"fmt"
)

// FilterOperator is a comparison operator for metadata filters. The names
// follow the operator vocabulary of the retrieval API this service exposes.
type FilterOperator string

const (
	FilterOpEqual    FilterOperator = "Equal"
	FilterOpNotEqual FilterOperator = "NotEqual"
	FilterOpLike     FilterOperator = "Like"
)

// Filterable passage fields. Anything else is rejected up front so filter
// input can never reach the query builder unchecked.
var filterableFields = map[string]struct{}{
	"source":         {},
	"knowledge_type": {},
	"source_id":      {},
}

// FilterPath is the target field of a filter condition. Callers may send it
// either as a plain string or as a single-element path array.
type FilterPath string

func (p *FilterPath) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = FilterPath(s)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("filter path must be a string or string array")
	}
	if len(parts) == 0 {
		*p = ""
		return nil
	}
	*p = FilterPath(parts[0])
	return nil
}

// FilterCondition is one metadata predicate on stored passages.
type FilterCondition struct {
	Path     FilterPath     `json:"path"`
	Operator FilterOperator `json:"operator"`
	Value    string         `json:"value"`
}

// Validate rejects conditions on unknown fields or with unsupported
// operators.
func (c FilterCondition) Validate() error {
	if _, ok := filterableFields[string(c.Path)]; !ok {
		return NewDomainErrorWithCause(ErrCodeValidation,
			fmt.Sprintf("cannot filter on %q", string(c.Path)), ErrInvalidFilterField)
	}
	switch c.Operator {
	case FilterOpEqual, FilterOpNotEqual, FilterOpLike:
		return nil
	default:
		return NewDomainErrorWithCause(ErrCodeValidation,
			fmt.Sprintf("operator %q", string(c.Operator)), ErrInvalidFilterOperator)
	}
}
