package api

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// measurementFormField carries the JSON snapshot in a multipart save; photo
// files travel next to it, one part per photo type.
const measurementFormField = "data"

type MeasurementHandler struct {
	measurementService service.MeasurementService
	photoService       service.PhotoService
}

func NewMeasurementHandler(measurementService service.MeasurementService, photoService service.PhotoService) *MeasurementHandler {
	return &MeasurementHandler{measurementService: measurementService, photoService: photoService}
}

type SaveMeasurementResponse struct {
	Measurement *service.MeasurementWithPhotos `json:"measurement"`
	Warnings    []string                       `json:"warnings"`
}

func (h *MeasurementHandler) ListMeasurements(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}

	records, err := h.measurementService.List(c.Request.Context(), trainerID, clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []domain.MeasurementRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *MeasurementHandler) GetLatestMeasurement(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}

	record, err := h.measurementService.Latest(c.Request.Context(), trainerID, clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *MeasurementHandler) GetMeasurement(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "measurementId")
	if !ok {
		return
	}

	record, err := h.measurementService.Get(c.Request.Context(), trainerID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// CreateMeasurement godoc
// @Summary Record a measurement snapshot
// @Description Accepts JSON, or multipart with the snapshot JSON in "data" and
// @Description optional files named frontal, lateral and posterior. Photo
// @Description failures are reported as warnings; the snapshot is kept.
// @Tags Measurements
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client's ObjectID Hex"
// @Success 201 {object} SaveMeasurementResponse
// @Failure 400 {object} gin.H "Validation failed"
// @Failure 404 {object} gin.H "Client not found"
// @Router /clients/{clientId}/measurements [post]
func (h *MeasurementHandler) CreateMeasurement(c *gin.Context) {
	h.save(c, nil, http.StatusCreated)
}

// UpdateMeasurement replaces the snapshot's fields in place; the id and
// existing photos are kept unless new files replace their slots.
func (h *MeasurementHandler) UpdateMeasurement(c *gin.Context) {
	id, ok := pathObjectID(c, "measurementId")
	if !ok {
		return
	}
	h.save(c, &id, http.StatusOK)
}

func (h *MeasurementHandler) save(c *gin.Context, id *primitive.ObjectID, status int) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}

	var (
		in     service.MeasurementInput
		photos []service.PendingPhoto
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
			return
		}
		defer form.RemoveAll()

		if err := json.Unmarshal([]byte(firstValue(form, measurementFormField)), &in); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}

		var files []multipart.File
		defer func() {
			for _, f := range files {
				f.Close()
			}
		}()
		names := make([]string, 0, len(form.File))
		for name := range form.File {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			headers := form.File[name]
			if len(headers) != 1 {
				respondError(c, service.ValidationErrors{"photoType": "one file per photo type"})
				return
			}
			f, err := headers[0].Open()
			if err != nil {
				abortWithError(c, http.StatusBadRequest, "Unreadable file part "+name)
				return
			}
			files = append(files, f)
			photos = append(photos, service.PendingPhoto{Type: domain.PhotoType(name), File: f})
		}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.measurementService.Save(c.Request.Context(), trainerID, clientID, id, in, photos)
	if err != nil {
		respondError(c, err)
		return
	}
	if result.Warning != nil {
		log.Warnf("measurement %s saved with photo failures: %s", result.Measurement.ID.Hex(), result.Warning)
	}
	c.JSON(status, SaveMeasurementResponse{
		Measurement: result.Measurement,
		Warnings:    warningsOf(result.Warning),
	})
}

// DeleteMeasurement godoc
// @Summary Delete a snapshot and its photos
// @Tags Measurements
// @Produce json
// @Security BearerAuth
// @Param measurementId path string true "Measurement's ObjectID Hex"
// @Success 200 {object} WarningsResponse "Deleted; warnings list files that could not be removed"
// @Router /measurements/{measurementId} [delete]
func (h *MeasurementHandler) DeleteMeasurement(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "measurementId")
	if !ok {
		return
	}

	result, err := h.measurementService.Delete(c.Request.Context(), trainerID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, WarningsResponse{Warnings: warningsOf(result.Warning)})
}

func (h *MeasurementHandler) ListPhotos(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "measurementId")
	if !ok {
		return
	}

	photos, err := h.photoService.FetchForMeasurement(c.Request.Context(), trainerID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if photos == nil {
		photos = []domain.ProgressPhoto{}
	}
	c.JSON(http.StatusOK, photos)
}

// UploadPhoto godoc
// @Summary Upload a progress photo into a slot
// @Description Replaces any photo already stored for the same type.
// @Tags Photos
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param measurementId path string true "Measurement's ObjectID Hex"
// @Param photoType path string true "frontal, lateral or posterior"
// @Param file formData file true "Image (jpeg, png or webp)"
// @Success 200 {object} domain.ProgressPhoto
// @Failure 413 {object} gin.H "File too large"
// @Failure 415 {object} gin.H "File type not allowed"
// @Router /measurements/{measurementId}/photos/{photoType} [put]
func (h *MeasurementHandler) UploadPhoto(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "measurementId")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, service.ValidationErrors{"file": "is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Unreadable file.")
		return
	}
	defer file.Close()

	photo, err := h.photoService.Upload(c.Request.Context(), trainerID, id, domain.PhotoType(c.Param("photoType")), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, photo)
}

func (h *MeasurementHandler) DeletePhoto(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "photoId")
	if !ok {
		return
	}

	result, err := h.photoService.Delete(c.Request.Context(), trainerID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, WarningsResponse{Warnings: warningsOf(result.Warning)})
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return "{}"
}
