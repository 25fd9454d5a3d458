package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/services"
	"github.com/careapp/carecoord/pkg/response"
)

const msgPatientNotFound = "Patient not found!"

// PatientHandler exposes care recipients and the family links that grant access to them.
type PatientHandler struct {
	patients PatientStore
}

func NewPatientHandler(patients PatientStore) *PatientHandler {
	return &PatientHandler{patients: patients}
}

type createPatientRequest struct {
	FirstName           string `json:"firstName" validate:"notblank"`
	LastName            string `json:"lastName"`
	DateOfBirth         string `json:"dateOfBirth"`
	CurrentStatus       string `json:"currentStatus"`
	Notes               string `json:"notes"`
	FamilyMemberID      string `json:"familyMemberId"`
	POAID               string `json:"poaId"`
	MedicalRecordNumber string `json:"medicalRecordNumber"`
}

func (r createPatientRequest) patient() *models.Patient {
	return &models.Patient{
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		DateOfBirth:         r.DateOfBirth,
		CurrentStatus:       r.CurrentStatus,
		Notes:               r.Notes,
		FamilyMemberID:      r.FamilyMemberID,
		POAID:               r.POAID,
		MedicalRecordNumber: r.MedicalRecordNumber,
	}
}

// POST /api/patients
func (h *PatientHandler) Create(c *gin.Context) {
	var req createPatientRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Failed to create patient!")) {
		return
	}
	created, err := h.patients.Create(requestContext(c), req.patient())
	if err != nil {
		respondError(c, err, "", "create patient")
		return
	}
	response.Success(c, created, "Patient created successfully!")
}

// GET /api/patients/:id
func (h *PatientHandler) Get(c *gin.Context) {
	patient, err := h.patients.Get(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgPatientNotFound, "retrieve patient")
		return
	}
	response.Success(c, patient, "Patient retrieved successfully!")
}

// GET /api/patients/family-member/:familyMemberId
func (h *PatientHandler) ListByFamilyMember(c *gin.Context) {
	patients, err := h.patients.ListByFamilyMember(requestContext(c), c.Param("familyMemberId"))
	respondPatients(c, patients, err, "Patients retrieved successfully!")
}

// GET /api/patients/poa/:poaId
func (h *PatientHandler) ListByPOA(c *gin.Context) {
	patients, err := h.patients.ListByPOA(requestContext(c), c.Param("poaId"))
	respondPatients(c, patients, err, "Patients retrieved successfully!")
}

// GET /api/patients/authorized/:userId?userType=
func (h *PatientHandler) ListAuthorized(c *gin.Context) {
	patients, err := h.patients.Authorized(requestContext(c), c.Param("userId"), c.Query("userType"))
	respondPatients(c, patients, err, "Authorized patients retrieved successfully!")
}

// PUT /api/patients/:id
func (h *PatientHandler) Update(c *gin.Context) {
	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.patients.Update(requestContext(c), c.Param("id"), req.patient())
	if errors.Is(err, services.ErrNotFound) {
		response.Error(c, response.CodeBadRequest, "Failed to update patient!")
		return
	}
	if err != nil {
		respondError(c, err, "", "update patient")
		return
	}
	response.Success(c, updated, "Patient updated successfully!")
}

// DELETE /api/patients/:id
func (h *PatientHandler) Delete(c *gin.Context) {
	deleted, err := h.patients.Delete(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "", "delete patient")
		return
	}
	if !deleted {
		response.Error(c, response.CodeBadRequest, "Failed to delete patient!")
		return
	}
	response.Success(c, "Patient deleted!", "Patient deleted successfully!")
}

func respondPatients(c *gin.Context, patients []models.Patient, err error, msg string) {
	if err != nil {
		respondError(c, err, "", "retrieve patients")
		return
	}
	response.Success(c, patients, msg)
}
