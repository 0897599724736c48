package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the vendor API clients.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
