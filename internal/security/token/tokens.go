// Package tokens emite y valida los tokens de servicio (HS256) con los que
// el backend CRUD se autentica contra esta API interna.
package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceClaims son las claims mínimas de un token de servicio.
type ServiceClaims struct {
	jwt.RegisteredClaims
}

// MintServiceToken emite un token HS256 para el servicio `subject`
// (ej: "backend", "avisamectl") con la vigencia dada.
func MintServiceToken(secret, issuer, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("tokens: secret vacío")
	}
	now := time.Now()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyServiceToken valida firma, expiración e issuer. Retorna el subject.
func VerifyServiceToken(secret, issuer, raw string) (string, error) {
	var claims ServiceClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("tokens: alg inesperado %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
