package dto

import "time"

// CreateTenantRequest entrada para aprovisionar un tenant.
type CreateTenantRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Domain  string `json:"domain" validate:"required,min=1,max=253"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// UpdateTenantRequest actualización parcial: los campos nil o vacíos conservan el valor actual.
type UpdateTenantRequest struct {
	Name    *string `json:"name"`
	Domain  *string `json:"domain"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	City    *string `json:"city"`
}

// TenantResponse salida de un tenant.
type TenantResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Domain    string     `json:"domain"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	City      string     `json:"city"`
	TenantURL string     `json:"tenant_url"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ProvisionedTenantResponse resultado del aprovisionamiento. La credencial inicial solo se devuelve aquí.
type ProvisionedTenantResponse struct {
	Tenant            TenantResponse `json:"tenant"`
	AdminUserID       string         `json:"admin_user_id"`
	AdminEmail        string         `json:"admin_email"`
	InitialCredential string         `json:"initial_credential"`
}

// TenantListResponse lista de tenants.
type TenantListResponse struct {
	Items []TenantResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
