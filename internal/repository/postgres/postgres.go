// Package postgres implements the repository interfaces on PostgreSQL.
package postgres

import (
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/database"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
)

// constraintFields maps unique constraints to the field they guard.
var constraintFields = map[string]string{
	"users_username_key":  "username",
	"users_email_key":     "email",
	"users_phone_key":     "phone",
	"categories_name_key": "name",
}

// duplicate converts a unique violation into AlreadyExists. values supplies
// the offending value per field. It returns nil for any other error.
func duplicate(err error, resource string, values map[string]string) error {
	constraint, ok := database.IsUniqueViolation(err)
	if !ok {
		return nil
	}
	field, known := constraintFields[constraint]
	if !known {
		field = "value"
	}
	return apperrors.AlreadyExists(resource, field, values[field])
}
