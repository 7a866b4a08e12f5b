package models

import "time"

// Device identifies the physical display a render is destined for.
type Device struct {
	ID string `json:"id"`
}

// RenderRequest asks for the current board, rendered for a device.
type RenderRequest struct {
	Type   string `json:"type"`
	UUID   string `json:"uuid"`
	Target string `json:"target"`
	Device Device `json:"device"`
}

// RenderResult carries a finished board image back to a device.
type RenderResult struct {
	Type        string    `json:"type"`
	UUID        string    `json:"uuid"`
	DeviceID    string    `json:"device_id"`
	ImageData   string    `json:"image_data"` // base64 encoded PNG
	ProcessedAt time.Time `json:"processed_at"`
}
