package model

// APIResponse is the two-field payload returned by the hello and health
// endpoints.
type APIResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServiceInfo describes the running service, returned by the info endpoint.
type ServiceInfo struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Port        int    `json:"port"`
}
