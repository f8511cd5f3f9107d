package handlers

import (
	"bytes"
	"io"
	"net/http"

	"campus-events-backend/constants"
	"campus-events-backend/database"
	"campus-events-backend/models"
	"campus-events-backend/storage"
	"campus-events-backend/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
)

const maxUploadSize = 5 << 20

var (
	posterTypes      = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}
	certificateTypes = map[string]bool{"image/jpeg": true, "image/png": true, "application/pdf": true}
)

// upload est un fichier multipart validé, prêt pour le stockage
type upload struct {
	data        []byte
	filename    string
	contentType string
}

// readUpload lit le champ multipart field, en vérifie la taille et le type réel.
// Retourne false et écrit l'erreur si le fichier est refusé.
func readUpload(w http.ResponseWriter, r *http.Request, field string, allowed map[string]bool) (*upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrFileTooLarge)
		return nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrNoFileProvided)
		return nil, false
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrFileTooLarge)
		return nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil || len(data) == 0 {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrNoFileProvided)
		return nil, false
	}
	if len(data) > maxUploadSize {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrFileTooLarge)
		return nil, false
	}

	// Le type déclaré par le client n'est pas fiable
	contentType := http.DetectContentType(data)
	if !allowed[contentType] {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrUnsupportedFileType)
		return nil, false
	}

	return &upload{data: data, filename: header.Filename, contentType: contentType}, true
}

// UploadHandler gère les affiches d'événements et les certificats
type UploadHandler struct {
	eventRepo        *database.EventRepository
	registrationRepo *database.RegistrationRepository
	storage          storage.ObjectStorage
}

// NewUploadHandler crée une nouvelle instance. store peut être nil (uploads désactivés).
func NewUploadHandler(eventRepo *database.EventRepository, registrationRepo *database.RegistrationRepository, store storage.ObjectStorage) *UploadHandler {
	return &UploadHandler{eventRepo: eventRepo, registrationRepo: registrationRepo, storage: store}
}

func (h *UploadHandler) put(w http.ResponseWriter, r *http.Request, folder, owner string, file *upload) (*models.StoredObject, bool) {
	key := storage.ObjectKey(folder, owner, file.filename)
	obj, err := h.storage.Put(r.Context(), key, bytes.NewReader(file.data), int64(len(file.data)), file.contentType)
	if err != nil {
		log.Error().Err(err).Str("backend", h.storage.Name()).Str("key", key).Msg("❌ Erreur lors de l'upload")
		utils.RespondError(w, http.StatusBadGateway, "Erreur lors de l'upload du fichier")
		return nil, false
	}
	return obj, true
}

func (h *UploadHandler) available(w http.ResponseWriter) bool {
	if h.storage == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, constants.ErrStorageUnavailable)
		return false
	}
	return true
}

// UploadPoster remplace l'affiche d'un événement (multipart "poster")
func (h *UploadHandler) UploadPoster(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	event, err := h.eventRepo.FindByID(r.Context(), eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID.Hex()).Msg("❌ Erreur lors de la récupération de l'événement")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if event == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrEventNotFound)
		return
	}

	file, ok := readUpload(w, r, "poster", posterTypes)
	if !ok {
		return
	}
	poster, ok := h.put(w, r, "posters", eventID.Hex(), file)
	if !ok {
		return
	}

	if err := h.eventRepo.Update(r.Context(), eventID, bson.M{"poster": poster}); err != nil {
		log.Error().Err(err).Str("event_id", eventID.Hex()).Msg("❌ Erreur lors de l'enregistrement de l'affiche")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	if event.Poster != nil {
		if err := h.storage.Delete(r.Context(), event.Poster.Key); err != nil {
			log.Warn().Err(err).Str("key", event.Poster.Key).Msg("⚠️  Ancienne affiche non supprimée")
		}
	}

	log.Info().Str("event_id", eventID.Hex()).Str("backend", poster.Backend).Msg("✓ Affiche mise à jour")
	utils.RespondSuccess(w, "Affiche mise à jour", poster)
}

// DeletePoster retire l'affiche d'un événement
func (h *UploadHandler) DeletePoster(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	event, err := h.eventRepo.FindByID(r.Context(), eventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID.Hex()).Msg("❌ Erreur lors de la récupération de l'événement")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if event == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrEventNotFound)
		return
	}
	if event.Poster == nil {
		utils.RespondSuccess(w, "Aucune affiche à supprimer", nil)
		return
	}

	if err := h.eventRepo.UnsetPoster(r.Context(), eventID); err != nil {
		log.Error().Err(err).Str("event_id", eventID.Hex()).Msg("❌ Erreur lors de la suppression de l'affiche")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if err := h.storage.Delete(r.Context(), event.Poster.Key); err != nil {
		log.Warn().Err(err).Str("key", event.Poster.Key).Msg("⚠️  Affiche non supprimée du stockage")
	}

	utils.RespondSuccess(w, "Affiche supprimée", nil)
}

// UploadCertificate attache un certificat de participation à une inscription payée (multipart "certificate")
func (h *UploadHandler) UploadCertificate(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	id, ok := ParseObjectIDVar(w, mux.Vars(r), "id", constants.ErrInvalidRegistrationID)
	if !ok {
		return
	}

	reg, err := h.registrationRepo.FindByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("registration_id", id.Hex()).Msg("❌ Erreur lors de la récupération de l'inscription")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if reg == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrRegistrationNotFound)
		return
	}
	if reg.PaymentStatus != models.PaymentCompleted {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrReceiptNotCompleted)
		return
	}

	file, ok := readUpload(w, r, "certificate", certificateTypes)
	if !ok {
		return
	}
	certificate, ok := h.put(w, r, "certificates", id.Hex(), file)
	if !ok {
		return
	}

	if err := h.registrationRepo.SetCertificate(r.Context(), id, certificate); err != nil {
		log.Error().Err(err).Str("registration_id", id.Hex()).Msg("❌ Erreur lors de l'enregistrement du certificat")
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Info().Str("registration_id", id.Hex()).Msg("✓ Certificat déposé")
	utils.RespondSuccess(w, "Certificat déposé", certificate)
}
