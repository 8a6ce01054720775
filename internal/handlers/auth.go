package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tariel-x/weddingcards/internal/apperr"
	"github.com/tariel-x/weddingcards/internal/models"
	"github.com/tariel-x/weddingcards/internal/planning"
)

type RegisterRequest struct {
	Email     string `json:"email" binding:"omitempty,email,max=254"`
	Phone     string `json:"phone" binding:"omitempty,e164"`
	FirstName string `json:"first_name" binding:"max=50"`
	LastName  string `json:"last_name" binding:"max=50"`
	Password  string `json:"password"`
}

// LoginRequest accepts the email or phone number in Login, or in the
// dedicated fields.
type LoginRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string         `json:"token"`
	User    models.User    `json:"user"`
	Planner models.Planner `json:"planner"`
}

func (h *Handlers) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, planner, err := h.planning.Register(c.Request.Context(), planning.RegisterInput{
		Email:     req.Email,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := h.generateToken(user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, LoginResponse{Token: token, User: *user, Planner: *planner})
}

func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	login := req.Login
	if login == "" {
		login = req.Email
	}
	if login == "" {
		login = req.Phone
	}
	if login == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "login is required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.planning.Authenticate(ctx, login, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	planner, err := h.planning.PlannerForUser(ctx, user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := h.generateToken(user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, User: *user, Planner: *planner})
}

func (h *Handlers) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.planning.User(ctx, userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	planner, err := h.planning.PlannerForUser(ctx, user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"planner":  planner,
		"username": user.Username(),
	})
}

func (h *Handlers) generateToken(userID string) (string, error) {
	now := h.nowFn()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(h.config.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.config.JWTSecret))
}

var errInvalidToken = errors.New("invalid token")

func (h *Handlers) parseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(h.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(h.nowFn), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errInvalidToken
	}
	return userID, nil
}

// AuthMiddleware accepts a bearer token, or a token query parameter for
// websocket clients, and resolves the caller's planner profile.
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		uid, err := h.parseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		planner, err := h.planning.PlannerForUser(c.Request.Context(), uid)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You are not registered as a wedding planner."})
				return
			}
			h.writeError(c, err)
			c.Abort()
			return
		}

		c.Set("user_id", uid)
		c.Set("planner_id", planner.ID)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString("user_id")
}

func plannerID(c *gin.Context) string {
	return c.GetString("planner_id")
}
