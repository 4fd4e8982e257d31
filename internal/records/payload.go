package records

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The document-AI response is schema-loose: intermediate objects may be
// absent, confidences arrive as numbers or strings depending on the section,
// and scalar outputs are occasionally numeric. The types below pin that
// shape down so every target field reads through a typed adapter with a
// typed default instead of ad-hoc map traversal.

// score is a 0..1 confidence that tolerates string and numeric encodings.
type score float64

func (s *score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			*s = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			*s = 0
			return nil
		}
		*s = score(parsed)
		return nil
	}
	var parsed float64
	if err := json.Unmarshal(data, &parsed); err != nil {
		*s = 0
		return nil
	}
	*s = score(parsed)
	return nil
}

// text is a scalar output that tolerates numeric encodings.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			*t = ""
			return nil
		}
		*t = text(raw)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		*t = ""
		return nil
	}
	*t = text(num.String())
	return nil
}

type resultEnvelope struct {
	Result json.RawMessage `json:"result"`
}

type multiPatientInfo struct {
	IsMultiPatient bool              `json:"is_multi_patient"`
	Confidence     score             `json:"confidence"`
	Clusters       map[string]string `json:"multi_patient_clusters"`
}

type subjectResult struct {
	DocumentType *struct {
		Overall *struct {
			Class      text  `json:"class"`
			Confidence score `json:"confidence"`
		} `json:"overall"`
	} `json:"document_type"`
	DocumentNameTags *struct {
		Other *struct {
			DocumentName text `json:"document_name"`
		} `json:"other"`
	} `json:"document_name_tags"`
	PatientInformation *struct {
		Name *struct {
			Confidence score `json:"confidence"`
			Output     struct {
				Processed struct {
					First text `json:"first"`
					Last  text `json:"last"`
				} `json:"processed"`
			} `json:"output"`
		} `json:"name"`
		Phone *struct {
			Confidence score `json:"confidence"`
			Output     struct {
				Processed struct {
					Cell text `json:"cell"`
					Home text `json:"home"`
					Work text `json:"work"`
				} `json:"processed"`
			} `json:"output"`
		} `json:"phone"`
		Address *struct {
			Confidence score `json:"confidence"`
			Output     struct {
				Processed struct {
					Address       text `json:"address"`
					City          text `json:"city"`
					StateProvince text `json:"state/province"`
					ZipPostal     text `json:"zip/postal"`
					Country       text `json:"country"`
				} `json:"processed"`
			} `json:"output"`
		} `json:"address"`
		DOB *struct {
			Confidence score `json:"confidence"`
			Output     struct {
				Processed struct {
					Month text `json:"month"`
					Day   text `json:"day"`
					Year  text `json:"year"`
				} `json:"processed"`
			} `json:"output"`
		} `json:"DOB"`
		Gender           *scalarField `json:"gender"`
		HealthCardNumber *struct {
			Confidence score `json:"confidence"`
			Output     struct {
				Processed struct {
					NO text `json:"NO"`
				} `json:"processed"`
			} `json:"output"`
		} `json:"health_card_number"`
		Email *scalarField `json:"email"`
	} `json:"patient_information"`
	InsuranceInformation *struct {
		Primary *struct {
			InsuranceName *scalarField `json:"insurance_name"`
			SubscriberID  *scalarField `json:"subscriber_id"`
		} `json:"primary"`
	} `json:"insurance_information"`
	From *struct {
		PhysicianName *struct {
			Confidence score `json:"confidence"`
			Output     struct {
				Processed struct {
					First text `json:"first"`
					Last  text `json:"last"`
				} `json:"processed"`
			} `json:"output"`
		} `json:"physician_name"`
		Facility *scalarField `json:"facility"`
	} `json:"from"`
	ReasonDiagnosisProcedure *struct {
		Diagnosis []diagnosisEntry `json:"diagnosis"`
	} `json:"reason_diagnosis_procedure"`
}

// scalarField is a confidenced field whose processed output is a scalar.
type scalarField struct {
	Confidence score `json:"confidence"`
	Output     struct {
		Processed text `json:"processed"`
	} `json:"output"`
}

func (f *scalarField) value() string {
	if f == nil {
		return ""
	}
	return string(f.Output.Processed)
}

func (f *scalarField) score() float64 {
	if f == nil {
		return 0
	}
	return float64(f.Confidence)
}

type diagnosisEntry struct {
	Confidence score `json:"confidence"`
	Output     struct {
		Processed struct {
			Diagnosis text `json:"diagnosis"`
			ICD       text `json:"icd"`
			ICD10     text `json:"icd10"`
			ICD9      text `json:"icd9"`
		} `json:"processed"`
	} `json:"output"`
}

// Adapter functions. Each reads one logical field out of a subjectResult and
// returns the field's declared default when any intermediate is absent.

func (r *subjectResult) documentType() (string, float64) {
	if r == nil || r.DocumentType == nil || r.DocumentType.Overall == nil {
		return "", 0
	}
	return string(r.DocumentType.Overall.Class), float64(r.DocumentType.Overall.Confidence)
}

// documentName is the title the analysis tagged the document with, distinct
// from the uploaded file name. Webhook payloads carry it; the flat record
// does not.
func (r *subjectResult) documentName() string {
	if r == nil || r.DocumentNameTags == nil || r.DocumentNameTags.Other == nil {
		return ""
	}
	return string(r.DocumentNameTags.Other.DocumentName)
}

func (r *subjectResult) name() (first, last string, conf float64) {
	if r == nil || r.PatientInformation == nil || r.PatientInformation.Name == nil {
		return "", "", 0
	}
	n := r.PatientInformation.Name
	return string(n.Output.Processed.First), string(n.Output.Processed.Last), float64(n.Confidence)
}

// phone prefers cell, then home, then work.
func (r *subjectResult) phone() (string, float64) {
	if r == nil || r.PatientInformation == nil || r.PatientInformation.Phone == nil {
		return "", 0
	}
	p := r.PatientInformation.Phone
	number := string(p.Output.Processed.Cell)
	if number == "" {
		number = string(p.Output.Processed.Home)
	}
	if number == "" {
		number = string(p.Output.Processed.Work)
	}
	return number, float64(p.Confidence)
}

func (r *subjectResult) addressParts() (street, city, state, zip, country string, conf float64) {
	if r == nil || r.PatientInformation == nil || r.PatientInformation.Address == nil {
		return "", "", "", "", "", 0
	}
	a := r.PatientInformation.Address
	p := a.Output.Processed
	return string(p.Address), string(p.City), string(p.StateProvince), string(p.ZipPostal), string(p.Country), float64(a.Confidence)
}

// dateOfBirth is assembled as month/day/year; the three sub-fields share one
// confidence.
func (r *subjectResult) dateOfBirth() (string, float64) {
	if r == nil || r.PatientInformation == nil || r.PatientInformation.DOB == nil {
		return "//", 0
	}
	d := r.PatientInformation.DOB
	p := d.Output.Processed
	return string(p.Month) + "/" + string(p.Day) + "/" + string(p.Year), float64(d.Confidence)
}

func (r *subjectResult) gender() (string, float64) {
	if r == nil || r.PatientInformation == nil {
		return "", 0
	}
	return r.PatientInformation.Gender.value(), r.PatientInformation.Gender.score()
}

func (r *subjectResult) healthCardNumber() (string, float64) {
	if r == nil || r.PatientInformation == nil || r.PatientInformation.HealthCardNumber == nil {
		return "", 0
	}
	h := r.PatientInformation.HealthCardNumber
	return string(h.Output.Processed.NO), float64(h.Confidence)
}

func (r *subjectResult) email() (string, float64) {
	if r == nil || r.PatientInformation == nil {
		return "", 0
	}
	return r.PatientInformation.Email.value(), r.PatientInformation.Email.score()
}

func (r *subjectResult) insuranceName() (string, float64) {
	if r == nil || r.InsuranceInformation == nil || r.InsuranceInformation.Primary == nil {
		return "", 0
	}
	return r.InsuranceInformation.Primary.InsuranceName.value(), r.InsuranceInformation.Primary.InsuranceName.score()
}

func (r *subjectResult) subscriberID() (string, float64) {
	if r == nil || r.InsuranceInformation == nil || r.InsuranceInformation.Primary == nil {
		return "", 0
	}
	return r.InsuranceInformation.Primary.SubscriberID.value(), r.InsuranceInformation.Primary.SubscriberID.score()
}

// physicianName joins first and last, trimmed so a lone part carries no
// stray space.
func (r *subjectResult) physicianName() (string, float64) {
	if r == nil || r.From == nil || r.From.PhysicianName == nil {
		return "", 0
	}
	p := r.From.PhysicianName
	name := strings.TrimSpace(string(p.Output.Processed.First) + " " + string(p.Output.Processed.Last))
	return name, float64(p.Confidence)
}

func (r *subjectResult) facility() (string, float64) {
	if r == nil || r.From == nil {
		return "", 0
	}
	return r.From.Facility.value(), r.From.Facility.score()
}

// firstDiagnosis returns only the leading entry of the diagnosis list; later
// entries are intentionally dropped. The ICD code falls back icd -> icd10 ->
// icd9.
func (r *subjectResult) firstDiagnosis() (diagnosis, icd string, conf float64) {
	if r == nil || r.ReasonDiagnosisProcedure == nil || len(r.ReasonDiagnosisProcedure.Diagnosis) == 0 {
		return "", "", 0
	}
	entry := r.ReasonDiagnosisProcedure.Diagnosis[0]
	p := entry.Output.Processed
	icd = string(p.ICD)
	if icd == "" {
		icd = string(p.ICD10)
	}
	if icd == "" {
		icd = string(p.ICD9)
	}
	return string(p.Diagnosis), icd, float64(entry.Confidence)
}
