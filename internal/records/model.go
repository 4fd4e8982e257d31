package records

import "strconv"

// SubjectRecord is one flattened tabular row for a single subject extracted
// from a processed document. Field order is fixed and identical across all
// records; missing source values flatten to "" or a zero confidence, never
// null.
type SubjectRecord struct {
	Timestamp                   string  `json:"timestamp"`
	DocumentNameUpload          string  `json:"document_name_upload"`
	PatientNumber               int     `json:"patient_number"`
	Type                        string  `json:"type"`
	TypeConfidence              float64 `json:"type_confidence"`
	FirstName                   string  `json:"first_name"`
	FirstNameConfidence         float64 `json:"first_name_confidence"`
	LastName                    string  `json:"last_name"`
	LastNameConfidence          float64 `json:"last_name_confidence"`
	PhoneNumber                 string  `json:"phone_number"`
	PhoneNumberConfidence       float64 `json:"phone_number_confidence"`
	Address                     string  `json:"address"`
	AddressConfidence           float64 `json:"address_confidence"`
	City                        string  `json:"city"`
	CityConfidence              float64 `json:"city_confidence"`
	State                       string  `json:"state"`
	StateConfidence             float64 `json:"state_confidence"`
	ZipCode                     string  `json:"zip_code"`
	ZipCodeConfidence           float64 `json:"zip_code_confidence"`
	Country                     string  `json:"country"`
	DateOfBirth                 string  `json:"date_of_birth"`
	DateOfBirthConfidence       float64 `json:"date_of_birth_confidence"`
	Gender                      string  `json:"gender"`
	GenderConfidence            float64 `json:"gender_confidence"`
	HealthCardNumber            string  `json:"health_card_number"`
	HealthCardNumberConfidence  float64 `json:"health_card_number_confidence"`
	Email                       string  `json:"email"`
	EmailConfidence             float64 `json:"email_confidence"`
	InsuranceName               string  `json:"insurance_name"`
	InsuranceNameConfidence     float64 `json:"insurance_name_confidence"`
	SubscriberID                string  `json:"subscriber_id"`
	SubscriberIDConfidence      float64 `json:"subscriber_id_confidence"`
	PhysicianName               string  `json:"physician_name"`
	PhysicianNameConfidence     float64 `json:"physician_name_confidence"`
	Facility                    string  `json:"facility"`
	FacilityConfidence          float64 `json:"facility_confidence"`
	Diagnosis                   string  `json:"diagnosis"`
	DiagnosisConfidence         float64 `json:"diagnosis_confidence"`
	ICDCode                     string  `json:"icd_code"`
	ICDCodeConfidence           float64 `json:"icd_code_confidence"`
}

// FieldOrder is the canonical column order for tabular export. It must match
// the order of values returned by Fields.
var FieldOrder = []string{
	"timestamp",
	"document_name_upload",
	"patient_number",
	"type",
	"type_confidence",
	"first_name",
	"first_name_confidence",
	"last_name",
	"last_name_confidence",
	"phone_number",
	"phone_number_confidence",
	"address",
	"address_confidence",
	"city",
	"city_confidence",
	"state",
	"state_confidence",
	"zip_code",
	"zip_code_confidence",
	"country",
	"date_of_birth",
	"date_of_birth_confidence",
	"gender",
	"gender_confidence",
	"health_card_number",
	"health_card_number_confidence",
	"email",
	"email_confidence",
	"insurance_name",
	"insurance_name_confidence",
	"subscriber_id",
	"subscriber_id_confidence",
	"physician_name",
	"physician_name_confidence",
	"facility",
	"facility_confidence",
	"diagnosis",
	"diagnosis_confidence",
	"icd_code",
	"icd_code_confidence",
}

// Fields returns the record's values stringified in FieldOrder.
func (r SubjectRecord) Fields() []string {
	return []string{
		r.Timestamp,
		r.DocumentNameUpload,
		strconv.Itoa(r.PatientNumber),
		r.Type,
		formatScore(r.TypeConfidence),
		r.FirstName,
		formatScore(r.FirstNameConfidence),
		r.LastName,
		formatScore(r.LastNameConfidence),
		r.PhoneNumber,
		formatScore(r.PhoneNumberConfidence),
		r.Address,
		formatScore(r.AddressConfidence),
		r.City,
		formatScore(r.CityConfidence),
		r.State,
		formatScore(r.StateConfidence),
		r.ZipCode,
		formatScore(r.ZipCodeConfidence),
		r.Country,
		r.DateOfBirth,
		formatScore(r.DateOfBirthConfidence),
		r.Gender,
		formatScore(r.GenderConfidence),
		r.HealthCardNumber,
		formatScore(r.HealthCardNumberConfidence),
		r.Email,
		formatScore(r.EmailConfidence),
		r.InsuranceName,
		formatScore(r.InsuranceNameConfidence),
		r.SubscriberID,
		formatScore(r.SubscriberIDConfidence),
		r.PhysicianName,
		formatScore(r.PhysicianNameConfidence),
		r.Facility,
		formatScore(r.FacilityConfidence),
		r.Diagnosis,
		formatScore(r.DiagnosisConfidence),
		r.ICDCode,
		formatScore(r.ICDCodeConfidence),
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
