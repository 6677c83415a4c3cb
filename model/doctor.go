package model

// Doctor as returned by the doctor service.
type Doctor struct {
	DoctorID       int    `json:"doctor_id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	PhoneNumber    string `json:"phone_number"`
	Email          string `json:"email"`
	LicenseNumber  string `json:"license_number"`
}

type DoctorCreate struct {
	Name           string `json:"name" form:"name" binding:"required"`
	Specialization string `json:"specialization" form:"specialization" binding:"required"`
	PhoneNumber    string `json:"phone_number" form:"phone_number" binding:"required"`
	Email          string `json:"email" form:"email" binding:"required,email"`
	LicenseNumber  string `json:"license_number" form:"license_number" binding:"required"`
}
