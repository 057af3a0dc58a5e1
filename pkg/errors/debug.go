package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/multierr"
)

// Diagnostics is a log-oriented breakdown of an error. It never reaches
// clients.
type Diagnostics struct {
	Message string
	Code    Code
	// Chain lists every wrapped error, outermost first.
	Chain []string
	// Causes holds the members of a combined (multierr) error.
	Causes   []string
	Postgres *PostgresDetails
}

type PostgresDetails struct {
	Code       string
	Constraint string
	Table      string
	Column     string
	Detail     string
	Message    string
}

func Dump(err error) Diagnostics {
	if err == nil {
		return Diagnostics{}
	}

	d := Diagnostics{Message: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	if causes := multierr.Errors(err); len(causes) > 1 {
		for _, cause := range causes {
			d.Causes = append(d.Causes, cause.Error())
		}
	}
	d.Postgres = postgresDetails(err)
	return d
}

// Fields flattens the diagnostics into structured log fields.
func (d Diagnostics) Fields() map[string]any {
	fields := map[string]any{
		"error_message": d.Message,
		"error_code":    d.Code,
		"error_chain":   d.Chain,
	}
	if len(d.Causes) > 0 {
		fields["error_causes"] = d.Causes
	}
	if pg := d.Postgres; pg != nil {
		fields["pg_code"] = pg.Code
		fields["pg_constraint"] = pg.Constraint
		fields["pg_table"] = pg.Table
		fields["pg_detail"] = pg.Detail
		fields["pg_message"] = pg.Message
	}
	return fields
}

func postgresDetails(err error) *PostgresDetails {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PostgresDetails{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PostgresDetails{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
