// Package validation implements the automated content gate: structural
// schema checks, cross-reference graph checks, and non-blocking quality
// heuristics over a lesson/module dataset.
package validation

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/eslsoft/hanguru/internal/entity"
)

// Validator runs the full automated validation sequence.
type Validator struct {
	schema  *SchemaValidator
	graph   *GraphValidator
	quality *QualityAnalyzer
}

// NewValidator wires the three stages together.
func NewValidator() *Validator {
	return &Validator{
		schema:  NewSchemaValidator(),
		graph:   NewGraphValidator(),
		quality: NewQualityAnalyzer(),
	}
}

// ValidateDataset produces an immutable result snapshot. Graph checks and
// quality warnings only run when the schema stage is clean.
func (v *Validator) ValidateDataset(ds *entity.Dataset) entity.ValidationResult {
	errs := v.schema.Validate(ds)
	var warnings []entity.ValidationWarning
	if len(errs) == 0 {
		errs = append(errs, v.graph.Validate(ds)...)
		warnings = v.quality.Warnings(ds)
	}
	return entity.ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// DecodeDataset strictly decodes a JSON dataset document. Unknown fields are
// rejected, the additionalProperties:false equivalent for raw documents.
func DecodeDataset(r io.Reader) (*entity.Dataset, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var ds entity.Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}
