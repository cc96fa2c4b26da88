package email

type EmailRequest struct {
	To      []string // Recipients
	Cc      []string // Carbon copy (optional)
	Subject string   // Email subject
	Body    string   // Email body (HTML or plain text)
	IsHTML  bool     // true for HTML, false for plain text
}

// PaymentConfirmationData is rendered into the order confirmation email.
type PaymentConfirmationData struct {
	Email             string
	CustomerName      string
	OrderID           string
	OrderReference    string
	AuthorizationCode string
	Total             string // formatted major units, e.g. "19.99"
	Currency          string
}
