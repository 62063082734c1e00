package constant

const (
	ChatTurnSenderUser = "user"
	ChatTurnSenderBot  = "bot"

	// Synthetic active-chat marker for preset conversations. Preset ids are
	// prefixed strings so they can never collide with real (timestamp) ids.
	PresetChatIdPrefix = "preset-"

	PresetChatTips      = 1
	PresetChatReview    = 2
	PresetChatInterview = 3

	// Session titles derive from the first user message, cut to 30 chars
	// plus an ellipsis.
	SessionTitleMaxLen   = 30
	SessionTitleEllipsis = "..."

	InterviewQuestionBullet = "• "
)

// Canned bot replies. The wording is part of the product surface, keep it stable.
const (
	UploadSuccessMessage = `Resume "%s" uploaded successfully! You can now ask questions about it.`
	UploadErrorMessage   = "Error uploading resume. Please try again."

	QueryErrorMessage = "Sorry, I couldn't process your request. Please try again."

	PresetTipsMessage = "I can help with your job application! Do you have a specific role or company in mind? Or would you like general tips for applications?"

	PresetReviewNeedsUploadMessage = "Please upload your resume first to get a review."
	PresetReviewMessage            = "I've analyzed your resume. What specific aspects would you like me to review? For example: formatting, content, achievements, or overall impression?"

	PresetInterviewNeedsUploadMessage = "Please upload your resume first to get personalized interview questions."
	InterviewGeneratingMessage        = "Generating personalized interview questions based on your resume..."
	InterviewHeaderMessage            = "Based on your resume, here are some interview questions you might be asked:"

	InterviewBackendErrorMessage  = "There was an error generating questions based on your resume. Please try again later."
	InterviewReportedErrorMessage = "There was an error generating questions. The system might be busy, please try again."
)

// InterviewTransportErrorMessages is shown when the backend could not be
// reached at all during interview-question generation.
var InterviewTransportErrorMessages = []string{
	"Unable to generate interview questions at this time.",
	"This could be due to server issues or Redis connection problems.",
	"Please try using the regular chat interface to ask about interview questions instead.",
}

// AllowedResumeExtensions is the extension-level upload filter. Content is
// not validated here; the backend owns parsing.
var AllowedResumeExtensions = []string{".pdf", ".doc", ".docx"}
