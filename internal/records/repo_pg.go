package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const insertRecordQuery = `
INSERT INTO subject_records (
	captured_at, document_name_upload, patient_number,
	doc_type, doc_type_confidence,
	first_name, first_name_confidence,
	last_name, last_name_confidence,
	phone_number, phone_number_confidence,
	address, address_confidence,
	city, city_confidence,
	state, state_confidence,
	zip_code, zip_code_confidence,
	country,
	date_of_birth, date_of_birth_confidence,
	gender, gender_confidence,
	health_card_number, health_card_number_confidence,
	email, email_confidence,
	insurance_name, insurance_name_confidence,
	subscriber_id, subscriber_id_confidence,
	physician_name, physician_name_confidence,
	facility, facility_confidence,
	diagnosis, diagnosis_confidence,
	icd_code, icd_code_confidence
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
        $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37, $38, $39, $40)`

const selectRecordColumns = `
SELECT captured_at, document_name_upload, patient_number,
       doc_type, doc_type_confidence,
       first_name, first_name_confidence,
       last_name, last_name_confidence,
       phone_number, phone_number_confidence,
       address, address_confidence,
       city, city_confidence,
       state, state_confidence,
       zip_code, zip_code_confidence,
       country,
       date_of_birth, date_of_birth_confidence,
       gender, gender_confidence,
       health_card_number, health_card_number_confidence,
       email, email_confidence,
       insurance_name, insurance_name_confidence,
       subscriber_id, subscriber_id_confidence,
       physician_name, physician_name_confidence,
       facility, facility_confidence,
       diagnosis, diagnosis_confidence,
       icd_code, icd_code_confidence
FROM subject_records
ORDER BY id`

// Append inserts records one per row inside a transaction.
func (r *PGRepo) Append(ctx context.Context, recs []SubjectRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range recs {
		capturedAt, err := time.Parse(time.RFC3339, rec.Timestamp)
		if err != nil {
			return fmt.Errorf("parse record timestamp %q: %w", rec.Timestamp, err)
		}
		if _, err := tx.ExecContext(ctx, insertRecordQuery,
			capturedAt,
			rec.DocumentNameUpload,
			rec.PatientNumber,
			rec.Type,
			rec.TypeConfidence,
			rec.FirstName,
			rec.FirstNameConfidence,
			rec.LastName,
			rec.LastNameConfidence,
			rec.PhoneNumber,
			rec.PhoneNumberConfidence,
			rec.Address,
			rec.AddressConfidence,
			rec.City,
			rec.CityConfidence,
			rec.State,
			rec.StateConfidence,
			rec.ZipCode,
			rec.ZipCodeConfidence,
			rec.Country,
			rec.DateOfBirth,
			rec.DateOfBirthConfidence,
			rec.Gender,
			rec.GenderConfidence,
			rec.HealthCardNumber,
			rec.HealthCardNumberConfidence,
			rec.Email,
			rec.EmailConfidence,
			rec.InsuranceName,
			rec.InsuranceNameConfidence,
			rec.SubscriberID,
			rec.SubscriberIDConfidence,
			rec.PhysicianName,
			rec.PhysicianNameConfidence,
			rec.Facility,
			rec.FacilityConfidence,
			rec.Diagnosis,
			rec.DiagnosisConfidence,
			rec.ICDCode,
			rec.ICDCodeConfidence,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Count returns the number of stored records.
func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM subject_records`).Scan(&count)
	return count, err
}

// List returns all stored records in insertion order.
func (r *PGRepo) List(ctx context.Context) ([]SubjectRecord, error) {
	rows, err := r.DB.QueryContext(ctx, selectRecordColumns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubjectRecord
	for rows.Next() {
		var rec SubjectRecord
		var capturedAt time.Time
		if err := rows.Scan(
			&capturedAt,
			&rec.DocumentNameUpload,
			&rec.PatientNumber,
			&rec.Type,
			&rec.TypeConfidence,
			&rec.FirstName,
			&rec.FirstNameConfidence,
			&rec.LastName,
			&rec.LastNameConfidence,
			&rec.PhoneNumber,
			&rec.PhoneNumberConfidence,
			&rec.Address,
			&rec.AddressConfidence,
			&rec.City,
			&rec.CityConfidence,
			&rec.State,
			&rec.StateConfidence,
			&rec.ZipCode,
			&rec.ZipCodeConfidence,
			&rec.Country,
			&rec.DateOfBirth,
			&rec.DateOfBirthConfidence,
			&rec.Gender,
			&rec.GenderConfidence,
			&rec.HealthCardNumber,
			&rec.HealthCardNumberConfidence,
			&rec.Email,
			&rec.EmailConfidence,
			&rec.InsuranceName,
			&rec.InsuranceNameConfidence,
			&rec.SubscriberID,
			&rec.SubscriberIDConfidence,
			&rec.PhysicianName,
			&rec.PhysicianNameConfidence,
			&rec.Facility,
			&rec.FacilityConfidence,
			&rec.Diagnosis,
			&rec.DiagnosisConfidence,
			&rec.ICDCode,
			&rec.ICDCodeConfidence,
		); err != nil {
			return nil, err
		}
		rec.Timestamp = capturedAt.UTC().Format(time.RFC3339)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Clear removes all stored records.
func (r *PGRepo) Clear(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM subject_records`)
	return err
}

var _ Repo = (*PGRepo)(nil)
