package records

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const documentKeyPrefix = "Document-"

// Delivery is one subject record enriched with its position in the source
// document, the shape posted to the outbound notification webhook.
type Delivery struct {
	SubjectRecord
	DocumentName   string `json:"document_name"`
	DocumentNumber int    `json:"document_number"`
	PagesRange     string `json:"pages_range"`
}

type subjectDoc struct {
	subject        subjectResult
	documentNumber int
	pagesRange     string
}

// Extract flattens a completed analysis payload into one SubjectRecord per
// detected subject. When the payload marks the document as multi-patient,
// each "Document-<n>" key under result yields one record, visited in
// ascending numeric order; otherwise the result itself is treated as a
// single subject. A payload with no result yields no records, which is not
// an error.
func Extract(payload json.RawMessage, originalFileName string, now time.Time) ([]SubjectRecord, error) {
	docs, err := extractSubjects(payload)
	if err != nil {
		return nil, err
	}
	capturedAt := now.UTC().Format(time.RFC3339)
	var out []SubjectRecord
	for i, doc := range docs {
		out = append(out, flatten(&doc.subject, originalFileName, i+1, capturedAt))
	}
	return out, nil
}

// ExtractDeliveries is Extract plus the per-subject document metadata the
// webhook body carries. Page ranges come verbatim from the multi-patient
// cluster map and are not validated against the documents present.
func ExtractDeliveries(payload json.RawMessage, originalFileName string, now time.Time) ([]Delivery, error) {
	docs, err := extractSubjects(payload)
	if err != nil {
		return nil, err
	}
	capturedAt := now.UTC().Format(time.RFC3339)
	var out []Delivery
	for i, doc := range docs {
		out = append(out, Delivery{
			SubjectRecord:  flatten(&doc.subject, originalFileName, i+1, capturedAt),
			DocumentName:   doc.subject.documentName(),
			DocumentNumber: doc.documentNumber,
			PagesRange:     doc.pagesRange,
		})
	}
	return out, nil
}

func extractSubjects(payload json.RawMessage) ([]subjectDoc, error) {
	var envelope resultEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode analysis payload: %w", err)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil, nil
	}

	var top struct {
		MultiPatient *multiPatientInfo `json:"multi_patient"`
	}
	if err := json.Unmarshal(envelope.Result, &top); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}

	if top.MultiPatient == nil || !top.MultiPatient.IsMultiPatient {
		var subject subjectResult
		if err := json.Unmarshal(envelope.Result, &subject); err != nil {
			return nil, fmt.Errorf("decode subject result: %w", err)
		}
		return []subjectDoc{{subject: subject, documentNumber: 1}}, nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(envelope.Result, &keyed); err != nil {
		return nil, fmt.Errorf("decode multi-patient result: %w", err)
	}

	var numbers []int
	for key := range keyed {
		n, ok := documentNumber(key)
		if !ok {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var out []subjectDoc
	for _, n := range numbers {
		key := documentKeyPrefix + strconv.Itoa(n)
		var nested resultEnvelope
		if err := json.Unmarshal(keyed[key], &nested); err != nil {
			continue
		}
		if len(nested.Result) == 0 || string(nested.Result) == "null" {
			continue
		}
		var subject subjectResult
		if err := json.Unmarshal(nested.Result, &subject); err != nil {
			continue
		}
		out = append(out, subjectDoc{
			subject:        subject,
			documentNumber: n,
			pagesRange:     top.MultiPatient.Clusters[key],
		})
	}
	return out, nil
}

// documentNumber parses the <n> out of a "Document-<n>" key.
func documentNumber(key string) (int, bool) {
	if !strings.HasPrefix(key, documentKeyPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(key[len(documentKeyPrefix):])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func flatten(subject *subjectResult, originalFileName string, patientNumber int, capturedAt string) SubjectRecord {
	record := SubjectRecord{
		Timestamp:          capturedAt,
		DocumentNameUpload: originalFileName,
		PatientNumber:      patientNumber,
	}

	record.Type, record.TypeConfidence = subject.documentType()

	first, last, nameConf := subject.name()
	record.FirstName, record.FirstNameConfidence = first, nameConf
	record.LastName, record.LastNameConfidence = last, nameConf

	record.PhoneNumber, record.PhoneNumberConfidence = subject.phone()

	street, city, state, zip, country, addrConf := subject.addressParts()
	record.Address, record.AddressConfidence = street, addrConf
	record.City, record.CityConfidence = city, addrConf
	record.State, record.StateConfidence = state, addrConf
	record.ZipCode, record.ZipCodeConfidence = zip, addrConf
	record.Country = country

	record.DateOfBirth, record.DateOfBirthConfidence = subject.dateOfBirth()
	record.Gender, record.GenderConfidence = subject.gender()
	record.HealthCardNumber, record.HealthCardNumberConfidence = subject.healthCardNumber()
	record.Email, record.EmailConfidence = subject.email()
	record.InsuranceName, record.InsuranceNameConfidence = subject.insuranceName()
	record.SubscriberID, record.SubscriberIDConfidence = subject.subscriberID()
	record.PhysicianName, record.PhysicianNameConfidence = subject.physicianName()
	record.Facility, record.FacilityConfidence = subject.facility()

	diagnosis, icd, diagConf := subject.firstDiagnosis()
	record.Diagnosis, record.DiagnosisConfidence = diagnosis, diagConf
	record.ICDCode, record.ICDCodeConfidence = icd, diagConf

	return record
}
