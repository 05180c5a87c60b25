package models

// TwilioWebhook is the form payload Twilio posts for an inbound WhatsApp
// message. Field names match Twilio's parameter casing.
type TwilioWebhook struct {
	MessageSid       string `form:"MessageSid"`
	AccountSid       string `form:"AccountSid"`
	From             string `form:"From"`
	To               string `form:"To"`
	Body             string `form:"Body"`
	MediaURL0        string `form:"MediaUrl0"`
	MediaContentType string `form:"MediaContentType0"`
	NumMedia         string `form:"NumMedia"`
}

// HasMedia reports whether the webhook carries at least one media item.
func (w TwilioWebhook) HasMedia() bool {
	return w.NumMedia != "" && w.NumMedia != "0" && w.MediaURL0 != ""
}
