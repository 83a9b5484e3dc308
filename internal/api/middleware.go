package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"alcyxob/gym-admin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContextTrainerIDKey holds the authenticated trainer's ObjectID.
const ContextTrainerIDKey = "trainerID"

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := &service.Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}
		if !token.Valid || claims.TrainerID == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		trainerID, err := primitive.ObjectIDFromHex(claims.TrainerID)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid trainer ID format in token")
			return
		}

		c.Set(ContextTrainerIDKey, trainerID)
		c.Next()
	}
}

// RequestLogger logs every request once it has been served.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Debug("request rejected")
		default:
			entry.Trace("request served")
		}
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

func getTrainerIDFromContext(c *gin.Context) (primitive.ObjectID, error) {
	idRaw, exists := c.Get(ContextTrainerIDKey)
	if !exists {
		return primitive.NilObjectID, errors.New("trainer ID not found in context")
	}
	id, ok := idRaw.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("invalid trainer ID type in context")
	}
	return id, nil
}

// mustTrainerID aborts with 401 when the context carries no trainer.
func mustTrainerID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := getTrainerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathObjectID parses an ObjectID path parameter, aborting with 400 when malformed.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format.", name))
		return primitive.NilObjectID, false
	}
	return id, true
}
