package dto

// EventIntentSucceeded is the only gateway event kind acted upon. Anything
// else is acknowledged and dropped.
const EventIntentSucceeded = "payment_intent.succeeded"

type InitiatePaymentResponse struct {
	BookingID  string `json:"booking_id"`
	PaymentRef string `json:"payment_ref"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	QRCodeURL  string `json:"qr_code_url,omitempty"`
}

type PaymentStatusResponse struct {
	BookingID     string `json:"booking_id"`
	BookingStatus string `json:"booking_status"`
	IntentStatus  string `json:"intent_status"`
	QRCodeURL     string `json:"qr_code_url,omitempty"`
}

// WebhookEvent mirrors the envelope posted by the payment gateway.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Status   string            `json:"status"`
			Amount   int64             `json:"amount"`
			Currency string            `json:"currency"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// BookingID returns the booking id carried on the event metadata, empty
// when the gateway object was created outside this system.
func (e *WebhookEvent) BookingID() string {
	return e.Data.Object.Metadata["booking_id"]
}

// ReferenceID returns our minted payment reference from the metadata.
func (e *WebhookEvent) ReferenceID() string {
	return e.Data.Object.Metadata["reference_id"]
}
