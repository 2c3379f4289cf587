package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrNotEnrolled       ErrCode = "NOT_ENROLLED"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrStaffAccessOnly   ErrCode = "STAFF_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Assessment / attempt ──────────────────────────────────────────
	ErrAssessmentNotAvailable ErrCode = "ASSESSMENT_NOT_AVAILABLE"
	ErrMaxAttemptsExceeded    ErrCode = "MAX_ATTEMPTS_EXCEEDED"
	ErrPrerequisitesNotMet    ErrCode = "PREREQUISITES_NOT_MET"
	ErrAlreadySubmitted       ErrCode = "ALREADY_SUBMITTED"
	ErrTimeLimitExceeded      ErrCode = "TIME_LIMIT_EXCEEDED"
	ErrAlreadyGraded          ErrCode = "ALREADY_GRADED"
	ErrInvalidGradingData     ErrCode = "INVALID_GRADING_DATA"

	// ─── Upload / media ────────────────────────────────────────────────
	ErrInvalidSession   ErrCode = "INVALID_UPLOAD_SESSION"
	ErrExpiredSession   ErrCode = "EXPIRED_UPLOAD_SESSION"
	ErrInvalidChunk     ErrCode = "INVALID_CHUNK_NUMBER"
	ErrIncompleteUpload ErrCode = "INCOMPLETE_UPLOAD"
	ErrChunkTooLarge    ErrCode = "CHUNK_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrNotEnrolled:
		return "You are not enrolled in this course."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrStaffAccessOnly:
		return "This resource is restricted to instructors."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Assessment / attempt ──────────────────────────────────────────
	case ErrAssessmentNotAvailable:
		return "This assessment is not currently available."
	case ErrMaxAttemptsExceeded:
		return "You have used all allowed attempts for this assessment."
	case ErrPrerequisitesNotMet:
		return "You have not met the prerequisites for this assessment."
	case ErrAlreadySubmitted:
		return "This attempt has already been submitted."
	case ErrTimeLimitExceeded:
		return "The time limit for this attempt has been exceeded."
	case ErrAlreadyGraded:
		return "This answer has already been graded."
	case ErrInvalidGradingData:
		return "The grading points are outside the allowed range."

	// ─── Upload / media ────────────────────────────────────────────────
	case ErrInvalidSession:
		return "The upload session does not exist or is no longer open."
	case ErrExpiredSession:
		return "The upload session has expired."
	case ErrInvalidChunk:
		return "The chunk number is outside the expected range."
	case ErrIncompleteUpload:
		return "The upload is incomplete. Some chunks are missing."
	case ErrChunkTooLarge:
		return "The chunk exceeds the maximum allowed size."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
