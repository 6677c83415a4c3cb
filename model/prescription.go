package model

// Prescription as returned by the records service.
type Prescription struct {
	PrescriptionID int    `json:"prescription_id"`
	RecordID       int    `json:"record_id"`
	MedicineRecipe string `json:"medicine_recipe"`
	Dosage         string `json:"dosage"`
	Instructions   string `json:"instructions"`
}

type PrescriptionCreate struct {
	RecordID       int    `json:"record_id" form:"record_id" binding:"required"`
	MedicineRecipe string `json:"medicine_recipe" form:"medicine_recipe" binding:"required"`
	Dosage         string `json:"dosage" form:"dosage" binding:"required"`
	Instructions   string `json:"instructions" form:"instructions" binding:"required"`
}
