package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ims-tenancy/internal/application/dto"
	"github.com/jhoicas/ims-tenancy/internal/domain"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/pkg/jwt"
	"github.com/jhoicas/ims-tenancy/pkg/logger"
)

// Locals keys para UserID, rol y contexto de tenant en Fiber.
const (
	LocalUserID  = "user_id"
	LocalRole    = "role"
	LocalTenancy = "tenancy"
)

// AuthMiddleware valida el Bearer Token JWT, resuelve el contexto de tenant del llamador
// y lo deja en c.Locals. Una petición sin tenant resoluble no llega al handler.
func AuthMiddleware(jwtSecret string, resolver *tenancy.Resolver, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("auth")
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}

		tc, err := resolver.Resolve(c.UserContext(), claims)
		if err != nil {
			var resErr *domain.TenantResolutionError
			if errors.As(err, &resErr) {
				log.Warn().Str("user", claims.Subject()).Str("reason", resErr.Reason).Msg("tenant no resuelto")
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "TENANT_UNRESOLVED", Message: resErr.Reason})
			}
			log.Error().Err(err).Str("user", claims.Subject()).Msg("fallo al resolver tenant")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "TENANT_CHECK_FAILED", Message: "no se pudo verificar el tenant, intente más tarde"})
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalRole, claims.Role)
		c.Locals(LocalTenancy, tc)
		return c.Next()
	}
}

// RequireRole permite el paso solo a los roles indicados. El superusuario siempre pasa.
// Debe usarse DESPUÉS de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetTenancy(c).IsUnscoped() {
			return c.Next()
		}
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		for _, r := range roles {
			if strings.EqualFold(r, role) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para este recurso"})
	}
}

// RequireSuperuser restringe la ruta al contexto Unscoped.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !GetTenancy(c).IsUnscoped() {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo superusuario"})
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetRole devuelve el rol del token.
func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRole).(string)
	return s
}

// GetTenancy devuelve el contexto de tenant resuelto. Sin middleware devuelve el valor cero,
// con el que todo acceso a datos falla.
func GetTenancy(c *fiber.Ctx) tenancy.Context {
	tc, _ := c.Locals(LocalTenancy).(tenancy.Context)
	return tc
}
