package records

import (
	"encoding/json"
	"testing"
	"time"
)

var extractNow = time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

func TestExtractMultiPatientYieldsOneRecordPerDocument(t *testing.T) {
	payload := json.RawMessage(`{
		"result": {
			"multi_patient": {
				"is_multi_patient": true,
				"confidence": 0.98,
				"multi_patient_clusters": {"Document-1": "Page 1-3", "Document-2": "Page 4-6"}
			},
			"Document-1": {"result": {"document_type": {"overall": {"class": "Fax", "confidence": "0.91"}}}},
			"Document-2": {"result": {"document_type": {"overall": {"class": "Referral", "confidence": "0.87"}}}}
		}
	}`)

	records, err := Extract(payload, "intake.pdf", extractNow)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Type != "Fax" || records[1].Type != "Referral" {
		t.Fatalf("unexpected types: %q, %q", records[0].Type, records[1].Type)
	}
	if records[0].TypeConfidence != 0.91 {
		t.Errorf("expected string confidence parsed to 0.91, got %v", records[0].TypeConfidence)
	}
	for i, rec := range records {
		if rec.DocumentNameUpload != "intake.pdf" {
			t.Errorf("record %d document_name_upload = %q", i, rec.DocumentNameUpload)
		}
		if rec.PatientNumber != i+1 {
			t.Errorf("record %d patient_number = %d", i, rec.PatientNumber)
		}
		if rec.Timestamp != "2025-06-01T12:30:00Z" {
			t.Errorf("record %d timestamp = %q", i, rec.Timestamp)
		}
	}
}

func TestExtractMultiPatientOrdersByDocumentNumberWithGaps(t *testing.T) {
	payload := json.RawMessage(`{
		"result": {
			"multi_patient": {"is_multi_patient": true},
			"Document-10": {"result": {"document_type": {"overall": {"class": "Third", "confidence": 0.5}}}},
			"Document-2": {"result": {"document_type": {"overall": {"class": "Second", "confidence": 0.5}}}},
			"Document-1": {"result": {"document_type": {"overall": {"class": "First", "confidence": 0.5}}}},
			"Document-4": {"notes": "no nested result, skipped"},
			"Document-x": {"result": {}}
		}
	}`)

	records, err := Extract(payload, "batch.pdf", extractNow)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	want := []string{"First", "Second", "Third"}
	for i, rec := range records {
		if rec.Type != want[i] {
			t.Errorf("record %d type = %q, want %q", i, rec.Type, want[i])
		}
		if rec.PatientNumber != i+1 {
			t.Errorf("record %d patient_number = %d, want sequential ordinal %d", i, rec.PatientNumber, i+1)
		}
	}
}

func TestExtractSingleSubjectWhenNotMultiPatient(t *testing.T) {
	for _, tc := range []struct {
		name    string
		payload string
	}{
		{"flag false", `{"result": {"multi_patient": {"is_multi_patient": false}, "document_type": {"overall": {"class": "Lab Report", "confidence": 0.8}}}}`},
		{"flag absent", `{"result": {"document_type": {"overall": {"class": "Lab Report", "confidence": 0.8}}}}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			records, err := Extract(json.RawMessage(tc.payload), "single.pdf", extractNow)
			if err != nil {
				t.Fatalf("Extract returned error: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(records))
			}
			if records[0].PatientNumber != 1 {
				t.Errorf("patient_number = %d, want 1", records[0].PatientNumber)
			}
			if records[0].Type != "Lab Report" {
				t.Errorf("type = %q", records[0].Type)
			}
		})
	}
}

func TestExtractFlattensFullSubject(t *testing.T) {
	payload := json.RawMessage(`{
		"result": {
			"document_type": {"overall": {"class": "Referral", "confidence": "0.95"}},
			"patient_information": {
				"name": {"confidence": 0.9, "output": {"processed": {"first": "Ada", "last": "Lovelace"}}},
				"phone": {"confidence": 0.7, "output": {"processed": {"cell": "", "home": "555-0100", "work": "555-0200"}}},
				"address": {"confidence": 0.6, "output": {"processed": {"address": "1 Main St", "city": "Toronto", "state/province": "ON", "zip/postal": "M5V 1A1", "country": "Canada"}}},
				"DOB": {"confidence": 0.85, "output": {"processed": {"month": 12, "day": "10", "year": 1815}}},
				"gender": {"confidence": 0.99, "output": {"processed": "F"}},
				"health_card_number": {"confidence": 0.8, "output": {"processed": {"NO": "1234-567-890"}}},
				"email": {"confidence": 0.5, "output": {"processed": "ada@example.com"}}
			},
			"insurance_information": {"primary": {
				"insurance_name": {"confidence": 0.4, "output": {"processed": "Acme Health"}},
				"subscriber_id": {"confidence": 0.3, "output": {"processed": "SUB-9"}}
			}},
			"from": {
				"physician_name": {"confidence": 0.75, "output": {"processed": {"first": "Gregory", "last": ""}}},
				"facility": {"confidence": 0.65, "output": {"processed": "Princeton General"}}
			},
			"reason_diagnosis_procedure": {"diagnosis": [
				{"confidence": 0.55, "output": {"processed": {"diagnosis": "Migraine", "icd": "", "icd10": "G43.909", "icd9": "346.90"}}},
				{"confidence": 0.2, "output": {"processed": {"diagnosis": "Second entry, dropped"}}}
			]}
		}
	}`)

	records, err := Extract(payload, "referral.pdf", extractNow)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]

	if rec.FirstName != "Ada" || rec.LastName != "Lovelace" {
		t.Errorf("name = %q %q", rec.FirstName, rec.LastName)
	}
	if rec.FirstNameConfidence != 0.9 || rec.LastNameConfidence != 0.9 {
		t.Errorf("name confidences = %v %v, want shared 0.9", rec.FirstNameConfidence, rec.LastNameConfidence)
	}
	if rec.PhoneNumber != "555-0100" {
		t.Errorf("phone = %q, want home number after empty cell", rec.PhoneNumber)
	}
	if rec.State != "ON" || rec.ZipCode != "M5V 1A1" || rec.Country != "Canada" {
		t.Errorf("address parts = %q %q %q", rec.State, rec.ZipCode, rec.Country)
	}
	if rec.AddressConfidence != 0.6 || rec.CityConfidence != 0.6 || rec.StateConfidence != 0.6 || rec.ZipCodeConfidence != 0.6 {
		t.Errorf("address confidences not shared: %v %v %v %v", rec.AddressConfidence, rec.CityConfidence, rec.StateConfidence, rec.ZipCodeConfidence)
	}
	if rec.DateOfBirth != "12/10/1815" {
		t.Errorf("date_of_birth = %q", rec.DateOfBirth)
	}
	if rec.DateOfBirthConfidence != 0.85 {
		t.Errorf("date_of_birth_confidence = %v", rec.DateOfBirthConfidence)
	}
	if rec.HealthCardNumber != "1234-567-890" {
		t.Errorf("health_card_number = %q", rec.HealthCardNumber)
	}
	if rec.PhysicianName != "Gregory" {
		t.Errorf("physician_name = %q, want trimmed single part", rec.PhysicianName)
	}
	if rec.Facility != "Princeton General" {
		t.Errorf("facility = %q", rec.Facility)
	}
	if rec.Diagnosis != "Migraine" {
		t.Errorf("diagnosis = %q, want first entry only", rec.Diagnosis)
	}
	if rec.ICDCode != "G43.909" {
		t.Errorf("icd_code = %q, want icd10 fallback", rec.ICDCode)
	}
	if rec.DiagnosisConfidence != 0.55 || rec.ICDCodeConfidence != 0.55 {
		t.Errorf("diagnosis confidences = %v %v", rec.DiagnosisConfidence, rec.ICDCodeConfidence)
	}
	if rec.InsuranceName != "Acme Health" || rec.SubscriberID != "SUB-9" {
		t.Errorf("insurance = %q %q", rec.InsuranceName, rec.SubscriberID)
	}
}

func TestExtractDefaultsForSparseSubject(t *testing.T) {
	records, err := Extract(json.RawMessage(`{"result": {}}`), "sparse.pdf", extractNow)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Type != "" || rec.TypeConfidence != 0 {
		t.Errorf("type defaults = %q %v", rec.Type, rec.TypeConfidence)
	}
	if rec.DateOfBirth != "//" {
		t.Errorf("date_of_birth = %q, want slash-joined empty parts", rec.DateOfBirth)
	}
	if rec.PhoneNumber != "" || rec.ICDCode != "" {
		t.Errorf("expected empty defaults, got phone=%q icd=%q", rec.PhoneNumber, rec.ICDCode)
	}
}

func TestExtractEmptyResult(t *testing.T) {
	for _, tc := range []struct {
		name    string
		payload string
	}{
		{"missing result", `{"status": "success"}`},
		{"null result", `{"result": null}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			records, err := Extract(json.RawMessage(tc.payload), "empty.pdf", extractNow)
			if err != nil {
				t.Fatalf("Extract returned error: %v", err)
			}
			if len(records) != 0 {
				t.Fatalf("expected no records, got %d", len(records))
			}
		})
	}
}

func TestExtractDeliveriesCarriesDocumentMetadata(t *testing.T) {
	payload := json.RawMessage(`{
		"result": {
			"multi_patient": {
				"is_multi_patient": true,
				"multi_patient_clusters": {"Document-1": "Page 1-3", "Document-3": "Page 4-6"}
			},
			"Document-1": {"result": {
				"document_type": {"overall": {"class": "Fax", "confidence": 0.9}},
				"document_name_tags": {"other": {"document_name": "Referral Fax Cover"}}
			}},
			"Document-3": {"result": {"document_type": {"overall": {"class": "Referral", "confidence": 0.8}}}}
		}
	}`)

	deliveries, err := ExtractDeliveries(payload, "intake.pdf", extractNow)
	if err != nil {
		t.Fatalf("ExtractDeliveries returned error: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
	// Document numbers keep the source key, patient numbers stay ordinal.
	if deliveries[1].DocumentNumber != 3 || deliveries[1].PatientNumber != 2 {
		t.Errorf("delivery 1 document_number=%d patient_number=%d", deliveries[1].DocumentNumber, deliveries[1].PatientNumber)
	}
	if deliveries[0].PagesRange != "Page 1-3" || deliveries[1].PagesRange != "Page 4-6" {
		t.Errorf("pages ranges = %q, %q", deliveries[0].PagesRange, deliveries[1].PagesRange)
	}
	// The tagged title rides along per subject; absence decodes to "".
	if deliveries[0].DocumentName != "Referral Fax Cover" || deliveries[1].DocumentName != "" {
		t.Errorf("document names = %q, %q", deliveries[0].DocumentName, deliveries[1].DocumentName)
	}
}

func TestExtractDeliveriesSingleSubject(t *testing.T) {
	payload := json.RawMessage(`{"result": {"document_type": {"overall": {"class": "Fax", "confidence": 0.9}}}}`)
	deliveries, err := ExtractDeliveries(payload, "intake.pdf", extractNow)
	if err != nil {
		t.Fatalf("ExtractDeliveries returned error: %v", err)
	}
	if len(deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(deliveries))
	}
	if deliveries[0].DocumentNumber != 1 || deliveries[0].PagesRange != "" {
		t.Errorf("document_number=%d pages_range=%q", deliveries[0].DocumentNumber, deliveries[0].PagesRange)
	}
}

func TestExtractRejectsNonObjectPayload(t *testing.T) {
	if _, err := Extract(json.RawMessage(`"not an object"`), "bad.pdf", extractNow); err == nil {
		t.Fatal("expected error for non-object payload")
	}
}
