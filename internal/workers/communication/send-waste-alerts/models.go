package sendwastealerts

type Input struct {
	Threshold float64 `json:"threshold"`
	Month     string  `json:"month,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Recipients     []string `json:"recipients"`
	Exceeded       []string `json:"exceeded"`
	Failed         []string `json:"failed,omitempty"`
	SentAt         string   `json:"sentAt"`
	Status         string   `json:"status"`
}

// Statuses
const (
	StatusSent         = "sent"
	StatusPartial      = "partial"
	StatusDisabled     = "disabled"
	StatusNoRecipients = "no_recipients"
)

// Subjects
const (
	SubjectExceeded    = "Waste Management Alert - Threshold Exceeded"
	SubjectWithinLimit = "Waste Management Notice - Within Limit"
)

// notice is the message composed for one student.
type notice struct {
	rollnum  string
	email    string
	phone    string
	exceeded bool
	fine     float64
	subject  string
	body     string
}
