package dashboard

import (
	"strconv"

	"github.com/TurahWilson/TubesIAE/model"
)

// Page names double as URL segments.
const (
	PageDashboard     = "dashboard"
	PagePatients      = "patients"
	PageDoctors       = "doctors"
	PageRecords       = "records"
	PagePrescriptions = "prescriptions"
)

var genders = []string{"M", "F"}

func itoa(n int) string { return strconv.Itoa(n) }

var PatientSchema = Schema[model.Patient, model.PatientCreate]{
	Name:    PagePatients,
	Title:   "Patients",
	Path:    "/patients/patients",
	Columns: []string{"ID", "Name", "Email", "Phone", "Gender", "Address"},
	Form: []FormField{
		{Name: "name", Label: "Name", Type: "text", Required: true},
		{Name: "email", Label: "Email", Type: "email", Required: true},
		{Name: "phone_number", Label: "Phone", Type: "tel", Required: true},
		{Name: "gender", Label: "Gender", Type: "select", Options: genders, Required: true},
		{Name: "address", Label: "Address", Type: "textarea", Required: true},
	},
	ID: func(p model.Patient) int { return p.PatientID },
	Row: func(p model.Patient) []string {
		return []string{itoa(p.PatientID), p.Name, p.Email, p.PhoneNumber, p.Gender, p.Address}
	},
	Detail: func(p model.Patient) []Field {
		return []Field{
			{"Patient ID", itoa(p.PatientID)},
			{"Name", p.Name},
			{"Email", p.Email},
			{"Phone", p.PhoneNumber},
			{"Gender", p.Gender},
			{"Address", p.Address},
		}
	},
	Values: func(p model.Patient) map[string]string {
		return map[string]string{"name": p.Name, "email": p.Email, "phone_number": p.PhoneNumber, "gender": p.Gender, "address": p.Address}
	},
}

var DoctorSchema = Schema[model.Doctor, model.DoctorCreate]{
	Name:    PageDoctors,
	Title:   "Doctors",
	Path:    "/doctors/doctors",
	Columns: []string{"ID", "Name", "Specialization", "Email", "Phone", "License"},
	Form: []FormField{
		{Name: "name", Label: "Name", Type: "text", Required: true},
		{Name: "specialization", Label: "Specialization", Type: "text", Required: true},
		{Name: "email", Label: "Email", Type: "email", Required: true},
		{Name: "phone_number", Label: "Phone", Type: "tel", Required: true},
		{Name: "license_number", Label: "License Number", Type: "text", Required: true},
	},
	ID: func(d model.Doctor) int { return d.DoctorID },
	Row: func(d model.Doctor) []string {
		return []string{itoa(d.DoctorID), d.Name, d.Specialization, d.Email, d.PhoneNumber, d.LicenseNumber}
	},
	Detail: func(d model.Doctor) []Field {
		return []Field{
			{"Doctor ID", itoa(d.DoctorID)},
			{"Name", d.Name},
			{"Specialization", d.Specialization},
			{"Email", d.Email},
			{"Phone", d.PhoneNumber},
			{"License Number", d.LicenseNumber},
		}
	},
	Values: func(d model.Doctor) map[string]string {
		return map[string]string{"name": d.Name, "specialization": d.Specialization, "email": d.Email, "phone_number": d.PhoneNumber, "license_number": d.LicenseNumber}
	},
}

var RecordSchema = Schema[model.MedicalRecord, model.MedicalRecordCreate]{
	Name:    PageRecords,
	Title:   "Medical Records",
	Path:    "/records/records",
	Columns: []string{"ID", "Patient ID", "Doctor ID", "Diagnosis", "Created"},
	Form: []FormField{
		{Name: "patient_id", Label: "Patient ID", Type: "number", Required: true},
		{Name: "doctor_id", Label: "Doctor ID", Type: "number", Required: true},
		{Name: "diagnosis", Label: "Diagnosis", Type: "textarea", Required: true},
	},
	ID: func(r model.MedicalRecord) int { return r.RecordID },
	Row: func(r model.MedicalRecord) []string {
		return []string{itoa(r.RecordID), itoa(r.PatientID), itoa(r.DoctorID), r.Diagnosis, r.CreatedAt.Display()}
	},
	Detail: func(r model.MedicalRecord) []Field {
		return []Field{
			{"Record ID", itoa(r.RecordID)},
			{"Patient ID", itoa(r.PatientID)},
			{"Doctor ID", itoa(r.DoctorID)},
			{"Diagnosis", r.Diagnosis},
			{"Created", r.CreatedAt.Display()},
		}
	},
	Values: func(r model.MedicalRecord) map[string]string {
		return map[string]string{"patient_id": itoa(r.PatientID), "doctor_id": itoa(r.DoctorID), "diagnosis": r.Diagnosis}
	},
}

var PrescriptionSchema = Schema[model.Prescription, model.PrescriptionCreate]{
	Name:    PagePrescriptions,
	Title:   "Prescriptions",
	Path:    "/records/prescriptions",
	Columns: []string{"ID", "Record ID", "Medicine", "Dosage", "Instructions"},
	Form: []FormField{
		{Name: "record_id", Label: "Record ID", Type: "number", Required: true},
		{Name: "medicine_recipe", Label: "Medicine", Type: "text", Required: true},
		{Name: "dosage", Label: "Dosage", Type: "text", Required: true},
		{Name: "instructions", Label: "Instructions", Type: "textarea", Required: true},
	},
	ID: func(p model.Prescription) int { return p.PrescriptionID },
	Row: func(p model.Prescription) []string {
		return []string{itoa(p.PrescriptionID), itoa(p.RecordID), p.MedicineRecipe, p.Dosage, p.Instructions}
	},
	Detail: func(p model.Prescription) []Field {
		return []Field{
			{"Prescription ID", itoa(p.PrescriptionID)},
			{"Record ID", itoa(p.RecordID)},
			{"Medicine", p.MedicineRecipe},
			{"Dosage", p.Dosage},
			{"Instructions", p.Instructions},
		}
	},
	Values: func(p model.Prescription) map[string]string {
		return map[string]string{"record_id": itoa(p.RecordID), "medicine_recipe": p.MedicineRecipe, "dosage": p.Dosage, "instructions": p.Instructions}
	},
}

// DefaultPanels builds the four record panels in navigation order.
func DefaultPanels(api API) []EntityPanel {
	return []EntityPanel{
		NewPanel(api, PatientSchema),
		NewPanel(api, DoctorSchema),
		NewPanel(api, RecordSchema),
		NewPanel(api, PrescriptionSchema),
	}
}
