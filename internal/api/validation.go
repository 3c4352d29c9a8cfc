// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/availlant/railref/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest validates a request parameter struct. It returns nil
// when validation passes, or a VALIDATION_ERROR describing the first
// failing field.
func validateRequest(v any) *models.APIError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: fmt.Sprintf("invalid %s: failed %s constraint", strings.ToLower(f.Field()), f.Tag()),
		}
	}
	return &models.APIError{Code: "VALIDATION_ERROR", Message: "invalid request parameters"}
}
