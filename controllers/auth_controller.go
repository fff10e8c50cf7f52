package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"cloud.google.com/go/auth/credentials/idtoken"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vnkhanh/internship-platform-backend/models"
	"github.com/vnkhanh/internship-platform-backend/utils"
)

type AuthController struct {
	db             *gorm.DB
	googleClientID string
}

func NewAuthController(db *gorm.DB, googleClientID string) *AuthController {
	return &AuthController{db: db, googleClientID: googleClientID}
}

// ====== INPUT STRUCTS ======
type RegisterInput struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	FullName    string `json:"full_name" binding:"required"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
	Skills      string `json:"skills"`
	Major       string `json:"major"`
	Location    string `json:"location"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginInput struct {
	IDToken string `json:"id_token" binding:"required"`
}

func userResponse(u *models.User) gin.H {
	return gin.H{
		"id":        u.ID,
		"email":     u.Email,
		"full_name": u.FullName,
		"role":      u.Role,
	}
}

// createAccount tạo user cùng preferences mặc định (và hồ sơ công ty nếu cần) trong một transaction.
func createAccount(tx *gorm.DB, user *models.User, companyName string) error {
	if err := tx.Create(user).Error; err != nil {
		return err
	}
	prefs := models.DefaultPreferences(user.ID)
	if err := tx.Create(&prefs).Error; err != nil {
		return err
	}
	if user.Role == models.RoleCompany {
		company := models.Company{UserID: user.ID, Name: companyName}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
	}
	return nil
}

// ====== HANDLERS ======
func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.RoleStudent
	if input.Role != "" {
		role = models.UserRole(input.Role)
	}
	// Không cho tự đăng ký admin
	if role != models.RoleStudent && role != models.RoleCompany {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be student or company"})
		return
	}
	if role == models.RoleCompany && strings.TrimSpace(input.CompanyName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_name is required for company accounts"})
		return
	}

	// Check email tồn tại
	var existing models.User
	if err := ac.db.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email đã được sử dụng"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể mã hoá mật khẩu"})
		return
	}

	newUser := models.User{
		FullName: input.FullName,
		Email:    input.Email,
		Password: string(hashed),
		Role:     role,
		Skills:   input.Skills,
		Major:    input.Major,
	}
	if input.Location != "" {
		newUser.Location = &input.Location
	}

	err = ac.db.Transaction(func(tx *gorm.DB) error {
		return createAccount(tx, &newUser, strings.TrimSpace(input.CompanyName))
	})
	if err != nil {
		log.Printf("Register error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi tạo người dùng"})
		return
	}

	token, err := utils.GenerateToken(newUser.ID.String(), string(newUser.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Đăng ký thành công",
		"token":   token,
		"user":    userResponse(&newUser),
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := ac.db.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email hoặc mật khẩu không đúng"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email hoặc mật khẩu không đúng"})
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Đăng nhập thành công",
		"token":   token,
		"user":    userResponse(&user),
	})
}

func (ac *AuthController) GoogleLogin(c *gin.Context) {
	var input GoogleLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ac.googleClientID == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google login chưa được cấu hình"})
		return
	}

	// Xác minh token với đúng GOOGLE_CLIENT_ID
	payload, err := idtoken.Validate(c.Request.Context(), input.IDToken, ac.googleClientID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token Google không hợp lệ"})
		return
	}

	email, _ := payload.Claims["email"].(string)
	fullName, _ := payload.Claims["name"].(string)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token Google không có email"})
		return
	}

	var user models.User
	err = ac.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Chưa có -> tạo mới, password để trống vì login Google
		user = models.User{Email: email, FullName: fullName, Role: models.RoleStudent}
		err = ac.db.Transaction(func(tx *gorm.DB) error {
			return createAccount(tx, &user, "")
		})
	}
	if err != nil {
		log.Printf("Google login error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo user Google"})
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(&user),
	})
}
