// Package models contain needed models
package models

// StegoResponse is the JSON body of every failed request and of the health check.
type StegoResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CapacityResponse reports how much an uploaded image can hold.
type CapacityResponse struct {
	Success                 bool   `json:"success"`
	Width                   int    `json:"width"`
	Height                  int    `json:"height"`
	Format                  string `json:"format"`
	CapacityBits            uint64 `json:"capacity_bits"`
	MaxSecretBytes          uint64 `json:"max_secret_bytes"`
	MaxEncryptedSecretBytes uint64 `json:"max_encrypted_secret_bytes"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// Multipart field names shared by the front-end and the handlers.
const (
	FieldImage    = "image"
	FieldSecret   = "secret"
	FieldPassword = "password"
)
