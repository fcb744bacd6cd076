package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ims-tenancy/internal/application/dto"
	"github.com/jhoicas/ims-tenancy/internal/application/tenant"
)

// TenantHandler administración de tenants.
type TenantHandler struct {
	svc *tenant.Service
}

// NewTenantHandler construye el handler.
func NewTenantHandler(svc *tenant.Service) *TenantHandler {
	return &TenantHandler{svc: svc}
}

// Create godoc
// @Summary      Aprovisionar tenant
// @Description  Crea el tenant, su usuario administrador y el rol Admin en una transacción. Solo superusuario.
// @Tags         tenants
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTenantRequest  true  "Datos del tenant"
// @Success      201   {object}  dto.ProvisionedTenantResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/tenants [post]
func (h *TenantHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTenantRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.Provision(c.UserContext(), GetTenancy(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar tenants
// @Description  El superusuario ve todos; un usuario de tenant solo el propio.
// @Tags         tenants
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"   default(20)
// @Param        offset  query  int  false  "Offset"   default(0)
// @Success      200  {object}  dto.TenantListResponse
// @Router       /api/tenants [get]
func (h *TenantHandler) List(c *fiber.Ctx) error {
	out, err := h.svc.List(c.UserContext(), GetTenancy(c), pageQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener tenant
// @Tags         tenants
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del tenant"
// @Success      200  {object}  dto.TenantResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tenants/{id} [get]
func (h *TenantHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.svc.Get(c.UserContext(), GetTenancy(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return notFound(c, "tenant")
	}
	return c.JSON(out)
}

// GetByDomain godoc
// @Summary      Buscar tenant por dominio
// @Tags         tenants
// @Security     Bearer
// @Produce      json
// @Param        domain  path  string  true  "Dominio"
// @Success      200  {object}  dto.TenantResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tenants/by-domain/{domain} [get]
func (h *TenantHandler) GetByDomain(c *fiber.Ctx) error {
	out, err := h.svc.GetByDomain(c.UserContext(), GetTenancy(c), c.Params("domain"))
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return notFound(c, "tenant")
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar tenant
// @Description  Solo se aplican los campos no vacíos.
// @Tags         tenants
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del tenant"
// @Param        body  body  dto.UpdateTenantRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.TenantResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/tenants/{id} [put]
func (h *TenantHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateTenantRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.Update(c.UserContext(), GetTenancy(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return notFound(c, "tenant")
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Dar de baja tenant
// @Tags         tenants
// @Security     Bearer
// @Param        id   path  string  true  "ID del tenant"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tenants/{id} [delete]
func (h *TenantHandler) Delete(c *fiber.Ctx) error {
	ok, err := h.svc.Delete(c.UserContext(), GetTenancy(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !ok {
		return notFound(c, "tenant")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
