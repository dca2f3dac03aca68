package merging

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
)

// ConflictError is returned when an apply selects a conflicted field
// without explicit operator resolution
type ConflictError struct {
	Fields []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicted fields require explicit resolution: %v", e.Fields)
}

// ValidationError rejects the whole apply when any selected value
// fails downstream format rules
type ValidationError struct {
	Issues []models.ValidationIssue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("merged values failed validation: %d issue(s)", len(e.Issues))
}

// FieldValidator checks one field value and returns its issues
type FieldValidator func(field, value string) []models.ValidationIssue

// ApplyOptions controls apply behavior
type ApplyOptions struct {
	// SelectedFields is the subset of diff fields to write. Empty
	// means every apply-classified row.
	SelectedFields []string
	// AllowConflicts permits overwriting conflicted fields when they
	// are explicitly selected. Automated paths leave this false.
	AllowConflicts bool
	// Validate rejects the whole apply when any written value fails.
	Validate FieldValidator
}

// Apply writes the selected diff rows onto a copy of the target
// payload. The write is all-or-nothing: a conflicted selection without
// resolution or any validation failure leaves the payload untouched.
// Returns the updated payload plus the applied and skipped field names.
func Apply(target models.Payload, rows []models.MergeDiffRow, opts ApplyOptions) (models.Payload, []string, []string, error) {
	selected := make(map[string]bool, len(opts.SelectedFields))
	for _, field := range opts.SelectedFields {
		selected[field] = true
	}
	selectAll := len(selected) == 0

	applied := make([]string, 0)
	skipped := make([]string, 0)
	var conflicted []string
	var issues []models.ValidationIssue
	writes := make(map[string]string)

	for _, row := range rows {
		wanted := selectAll || selected[row.Field]

		switch row.Classification {
		case models.ClassificationEqual:
			if !selectAll && wanted {
				skipped = append(skipped, row.Field)
			}
			continue
		case models.ClassificationConflict:
			if !wanted || selectAll {
				skipped = append(skipped, row.Field)
				continue
			}
			if !opts.AllowConflicts {
				conflicted = append(conflicted, row.Field)
				continue
			}
		case models.ClassificationApply:
			if !wanted {
				skipped = append(skipped, row.Field)
				continue
			}
		}

		if opts.Validate != nil {
			if fieldIssues := opts.Validate(row.Field, row.SuggestedValue); len(fieldIssues) > 0 {
				issues = append(issues, fieldIssues...)
				continue
			}
		}

		writes[row.Field] = row.SuggestedValue
		applied = append(applied, row.Field)
	}

	if len(conflicted) > 0 {
		return target, nil, nil, &ConflictError{Fields: conflicted}
	}
	if len(issues) > 0 {
		return target, nil, nil, &ValidationError{Issues: issues}
	}

	for field, value := range writes {
		target.SetField(field, value)
	}

	return target, applied, skipped, nil
}
