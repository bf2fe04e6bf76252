// server/internal/api/handlers/user_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"quickmeds-api-server/internal/auth"
	"quickmeds-api-server/internal/models"
	"quickmeds-api-server/internal/registry"
)

type UserHandler struct {
	DB       *mongo.Database
	Auth     *auth.Service
	Registry *registry.Registry
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login xác thực và phát hành JWT.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(c.Request.Context(), bson.M{"email": req.Email}).Decode(&user)
	if err != nil || !auth.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	actorID := ""
	switch user.Role {
	case models.RoleDelivery:
		actorID = user.PartnerID
	case models.RolePharmacy:
		actorID = user.PharmacyID
	case models.RoleUser, models.RoleAdmin:
		// Không có hồ sơ nghiệp vụ riêng.
	}

	token, err := h.Auth.GenerateJWT(user.UserID, user.Email, user.Role, actorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"role":  user.Role,
		"name":  user.Name,
	})
}

type RegisterRequest struct {
	Email    string      `json:"email" binding:"required"`
	Name     string      `json:"name" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
	Phone    string      `json:"phone"`
	// Dành cho đối tác giao hàng.
	VehicleType string `json:"vehicleType"`
	City        string `json:"city"`
}

// Register tạo tài khoản mới. Đăng ký vai trò delivery tạo kèm hồ sơ đối tác
// ở trạng thái chờ admin duyệt.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.IsValid() || req.Role == models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	ctx := c.Request.Context()
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		UserID:   "U-" + uuid.New().String()[:8],
		Email:    req.Email,
		Name:     req.Name,
		Password: hashedPassword,
		Role:     req.Role,
		Status:   "active",
	}

	if req.Role == models.RoleDelivery {
		partner := &models.DeliveryPartner{
			Name:        req.Name,
			Phone:       req.Phone,
			Email:       req.Email,
			VehicleType: req.VehicleType,
			City:        req.City,
		}
		if err := h.Registry.Register(ctx, partner); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create partner profile"})
			return
		}
		user.PartnerID = partner.PartnerID
	}

	if _, err := h.DB.Collection("users").InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":    "success",
		"userID":    user.UserID,
		"partnerID": user.PartnerID,
	})
}
