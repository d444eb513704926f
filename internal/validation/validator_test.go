// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Name     string `validate:"required,min=1,max=200"`
	Kind     string `validate:"omitempty,oneof=slide widget"`
	Duration int    `validate:"gte=0,lte=86400"`
}

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()

	req := sampleRequest{Name: "Lobby loop", Kind: "slide", Duration: 30}
	if verr := ValidateStruct(&req); verr != nil {
		t.Fatalf("expected no error, got %v", verr)
	}
}

func TestValidateStructRequired(t *testing.T) {
	t.Parallel()

	req := sampleRequest{Duration: 10}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(verr.Errors()))
	}
	fe := verr.Errors()[0]
	if fe.Field() != "Name" || fe.Tag() != "required" {
		t.Errorf("unexpected error: field=%s tag=%s", fe.Field(), fe.Tag())
	}
	if fe.Error() != "Name is required" {
		t.Errorf("unexpected message: %q", fe.Error())
	}
}

func TestValidateStructOneof(t *testing.T) {
	t.Parallel()

	req := sampleRequest{Name: "x", Kind: "banner"}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	fe := verr.Errors()[0]
	if fe.Tag() != "oneof" {
		t.Fatalf("expected oneof failure, got %s", fe.Tag())
	}
	if !strings.Contains(fe.Error(), "must be one of") {
		t.Errorf("unexpected message: %q", fe.Error())
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	t.Parallel()

	req := sampleRequest{Name: "x", Duration: -5}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", apiErr.Code)
	}
	if apiErr.Details["field"] != "Duration" {
		t.Errorf("details field = %v, want Duration", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultiple(t *testing.T) {
	t.Parallel()

	req := sampleRequest{Kind: "banner", Duration: -1}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("details fields has unexpected type %T", apiErr.Details["fields"])
	}
	if len(fields) != 3 {
		t.Errorf("expected 3 field entries, got %d", len(fields))
	}
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("expected combined message, got %q", apiErr.Message)
	}
}

func TestValidatorSingleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}
