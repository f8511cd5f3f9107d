package constants

// Messages d'erreur HTTP courants
const (
	ErrServerError             = "Erreur serveur"
	ErrInvalidData             = "Données invalides"
	ErrNotAuthenticated        = "Non authentifié"
	ErrInvalidToken            = "Token invalide ou expiré"
	ErrInvalidEventID          = "ID événement invalide"
	ErrInvalidRegistrationID   = "ID d'inscription invalide"
	ErrEventNotFound           = "Événement non trouvé"
	ErrRegistrationNotFound    = "Inscription non trouvée"
	ErrUserNotFound            = "Utilisateur introuvable"
	ErrAdminOnly               = "Accès refusé. Admin uniquement"
	ErrAccessDenied            = "Accès refusé"
	ErrInvalidJSONBody         = "Body JSON invalide"
	ErrInvalidCredentials      = "Email ou mot de passe incorrect"
	ErrAccountNotVerified      = "Compte non vérifié, veuillez saisir le code reçu par email"
	ErrInvalidOTP              = "Code de vérification invalide ou expiré"
	ErrTooManyRequests         = "Trop de tentatives, réessayez plus tard"
	ErrEmailAlreadyUsed        = "Cet email est déjà utilisé"
	ErrCancelNotPending        = "Seule une inscription en attente de paiement peut être annulée"
	ErrReceiptNotCompleted     = "Le paiement n'est pas finalisé, aucun reçu ne peut être envoyé"
	ErrPaymentCheckFailed      = "Impossible de vérifier le paiement, réessayez plus tard"
	ErrWebhookSignature        = "Signature webhook invalide"
	ErrFeedbackNotAllowed      = "Seuls les participants inscrits peuvent laisser un avis"
	ErrFeedbackAlreadyExists   = "Vous avez déjà donné votre avis sur cet événement"
	ErrNoFileProvided          = "Aucun fichier fourni"
	ErrUnsupportedFileType     = "Format de fichier non supporté"
	ErrFileTooLarge            = "Le fichier ne doit pas dépasser 5 MB"
	ErrStorageUnavailable      = "Stockage de fichiers non configuré"
	ErrInvalidParentEvent      = "L'événement parent doit être un événement principal existant"
	ErrMainEventWithParent     = "Un événement principal ne peut pas avoir de parent"
	ErrEventHasRegistrations   = "Impossible de supprimer un événement ayant des inscriptions"
	ErrDecodeRegistrations     = "erreur lors du décodage des inscriptions: %w"
)

// Codes d'erreur métier renvoyés au client
const (
	CodeForbiddenAdminRegistration = "FORBIDDEN_ADMIN_REGISTRATION"
	CodeEventNotFound              = "EVENT_NOT_FOUND"
	CodeAlreadyRegistered          = "ALREADY_REGISTERED"
	CodeBasicRegistrationDisabled  = "BASIC_REGISTRATION_DISABLED"
	CodeBasicRegistrationRequired  = "BASIC_REGISTRATION_REQUIRED"
	CodeDepartmentNotEligible      = "DEPARTMENT_NOT_ELIGIBLE"
	CodeTeamSizeInvalid            = "TEAM_SIZE_INVALID"
	CodeValidation                 = "VALIDATION_ERROR"
	CodePaymentCheckFailed         = "PAYMENT_CHECK_FAILED"
)

// En-têtes HTTP
const (
	HeaderRequestID       = "X-Request-ID"
	HeaderStripeSignature = "Stripe-Signature"
)
