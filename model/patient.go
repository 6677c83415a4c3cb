package model

// Patient as returned by the patient service.
type Patient struct {
	PatientID   int    `json:"patient_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
}

type PatientCreate struct {
	Name        string `json:"name" form:"name" binding:"required"`
	Email       string `json:"email" form:"email" binding:"required,email"`
	PhoneNumber string `json:"phone_number" form:"phone_number" binding:"required"`
	Gender      string `json:"gender" form:"gender" binding:"required"`
	Address     string `json:"address" form:"address" binding:"required"`
}
