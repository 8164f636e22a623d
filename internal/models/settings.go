package models

import "time"

// SettingsID is the key of the system settings singleton
const SettingsID = "system"

// Supported PIX gateways
const (
	GatewayEfi         = "efi"
	GatewayMercadoPago = "mercadopago"
)

// SystemSettings holds platform-wide configuration editable by admins
type SystemSettings struct {
	ID         string    `json:"id"`
	PixGateway string    `json:"pix_gateway"`
	UpdatedAt  time.Time `json:"updated_at"`
}
