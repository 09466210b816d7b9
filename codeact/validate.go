package codeact

import (
	"fmt"
	"strings"
)

// ValidateSubmission checks a raw submission payload against the declared
// output fields and coerces each value to its declared type. Coercion
// failures are collected across all fields before reporting. On success the
// returned mapping is keyed by the declared field names.
func ValidateSubmission(payload any, outputs []Field) (map[string]any, error) {
	mapping, ok := payload.(map[string]any)
	if !ok || mapping == nil {
		return nil, &SubmissionShapeError{LoopError{
			Message: fmt.Sprintf("submission must provide the output fields as keyword arguments: %s", CallShape(outputs)),
		}}
	}

	present := make(map[string]any, len(mapping))
	for k, v := range mapping {
		present[strings.TrimSpace(k)] = v
	}

	var missing []string
	for _, f := range outputs {
		if _, ok := present[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{
			LoopError: LoopError{
				Message: fmt.Sprintf("submission is missing output fields [%s]; expected %s",
					strings.Join(missing, ", "), CallShape(outputs)),
			},
			Missing: missing,
		}
	}

	coerced := make(map[string]any, len(outputs))
	var failures []CoercionFailure
	for _, f := range outputs {
		value, err := f.Type.Coerce(present[f.Name])
		if err != nil {
			failures = append(failures, CoercionFailure{
				Field:        f.Name,
				DeclaredType: f.Type,
				ReceivedType: fmt.Sprintf("%T", present[f.Name]),
				Detail:       err.Error(),
			})
			continue
		}
		coerced[f.Name] = value
	}
	if len(failures) > 0 {
		return nil, newTypeCoercionError(failures)
	}
	return coerced, nil
}
