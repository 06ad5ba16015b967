package transport

// Greeting answers the connectivity probe route.
type Greeting struct {
	Message string `json:"message"`
}

// MessageList pairs stored messages with the current quota usage.
type MessageList struct {
	Messages any `json:"messages"`
	Used     int `json:"used"`
	Limit    int `json:"limit"`
}

// HealthReport is served on the admin health path.
type HealthReport struct {
	Status   string `json:"status"`
	Services any    `json:"services"`
}
