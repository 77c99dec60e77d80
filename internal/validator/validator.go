package validator

// The CUE schema is the contract between the extractor and the stages that
// consume its output. A Module that does not satisfy it is a bug in the
// extractor: report it, do not patch the data downstream.

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/design"
)

//go:embed schema.cue
var schemaFS embed.FS

const (
	moduleDef     = "#Module"
	checkInputDef = "#CheckInput"
)

// Validator validates extracted data against the embedded CUE schema
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New creates a new Validator with the embedded CUE schema
func New() (*Validator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := schemaFS.ReadFile("schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema,
	}, nil
}

// ValidateModule checks an extracted module against #Module
func (v *Validator) ValidateModule(mod design.Module) error {
	if err := v.validate(mod, moduleDef); err != nil {
		return fmt.Errorf("module %s: %w", mod.Name, err)
	}
	return nil
}

// ValidateCheckInput checks the input of the harness checks against
// #CheckInput
func (v *Validator) ValidateCheckInput(input interface{}) error {
	return v.validate(input, checkInputDef)
}

// ValidateJSON validates JSON bytes directly against the named definition
func (v *Validator) ValidateJSON(jsonBytes []byte, def string) error {
	unified, err := v.unify(jsonBytes, def)
	if err != nil {
		return err
	}
	if err := unified.Validate(); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ValidationErrors returns every error found when validating data against
// #Module, one message per error
func (v *Validator) ValidationErrors(data interface{}) []string {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}

	unified, err := v.unify(jsonBytes, moduleDef)
	if err != nil {
		return []string{err.Error()}
	}

	err = unified.Validate()
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}

func (v *Validator) validate(data interface{}, def string) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling data to JSON: %w", err)
	}
	return v.ValidateJSON(jsonBytes, def)
}

func (v *Validator) unify(jsonBytes []byte, def string) (cue.Value, error) {
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("compiling JSON as CUE: %w", dataValue.Err())
	}

	defValue := v.schema.LookupPath(cue.ParsePath(def))
	if defValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("looking up %s definition: %w", def, defValue.Err())
	}

	return defValue.Unify(dataValue), nil
}
