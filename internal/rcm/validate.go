package rcm

import (
	"fmt"
	"regexp"
	"time"
)

var (
	cptPattern   = regexp.MustCompile(`^\d{5}$`)
	icd10Pattern = regexp.MustCompile(`^[A-Z][0-9]{2}(\.[A-Z0-9]{1,4})?$`)
)

// ClaimInput carries the caller-supplied fields of a claim submission.
type ClaimInput struct {
	PatientID     string
	ProviderID    string
	ServiceDate   string
	DiagnosisCode string
	ProcedureCode string
	Amount        float64
}

// ValidationResult reports the outcome of claim validation. Errors is empty
// when Valid is true.
type ValidationResult struct {
	Valid  bool     `json:"is_valid"`
	Errors []string `json:"errors"`
}

// ValidateClaim checks a claim submission for required fields, amount sanity,
// CPT/ICD-10 code shape, and that the service date is not in the future.
// Problems are reported in the result, never as an error.
func ValidateClaim(in ClaimInput) ValidationResult {
	errs := []string{}

	if in.PatientID == "" {
		errs = append(errs, "patient_id is required")
	}
	if in.ProviderID == "" {
		errs = append(errs, "provider_id is required")
	}
	if in.ServiceDate == "" {
		errs = append(errs, "service_date is required")
	} else if svc, err := ParseDate(in.ServiceDate); err != nil {
		errs = append(errs, fmt.Sprintf("service_date %q is not a valid date", in.ServiceDate))
	} else if svc.After(time.Now()) {
		errs = append(errs, "service_date cannot be in the future")
	}
	if in.Amount <= 0 {
		errs = append(errs, "amount must be greater than zero")
	}
	if in.ProcedureCode == "" {
		errs = append(errs, "procedure code is required")
	} else if !cptPattern.MatchString(in.ProcedureCode) {
		errs = append(errs, fmt.Sprintf("procedure code %q is not a valid CPT code", in.ProcedureCode))
	}
	if in.DiagnosisCode == "" {
		errs = append(errs, "diagnosis code is required")
	} else if !icd10Pattern.MatchString(in.DiagnosisCode) {
		errs = append(errs, fmt.Sprintf("diagnosis code %q is not a valid ICD-10 code", in.DiagnosisCode))
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
