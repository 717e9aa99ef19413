package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
)

// CSRF cookie and accepted request headers
const (
	CSRFCookieName = "XSRF-TOKEN"
	CSRFHeader     = "X-CSRFToken"
	CSRFHeaderAlt  = "X-XSRF-TOKEN"
)

const csrfNonceBytes = 32

// CSRF implements double-submit tokens: a random nonce signed with HMAC-SHA256,
// stored in a script-readable cookie and echoed back in a request header.
type CSRF struct {
	key    []byte
	secure bool
	maxAge int
}

// NewCSRF creates the CSRF protection. The key should be the application secret.
func NewCSRF(secret string, secureCookie bool, maxAgeSeconds int) *CSRF {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("csrf"))
	return &CSRF{key: mac.Sum(nil), secure: secureCookie, maxAge: maxAgeSeconds}
}

// Issue creates a token and sets it as cookie
func (p *CSRF) Issue(c *gin.Context) (string, error) {
	nonce := make([]byte, csrfNonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	enc := base64.RawURLEncoding
	token := enc.EncodeToString(nonce) + "." + enc.EncodeToString(p.sign(nonce))

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CSRFCookieName, token, p.maxAge, "/", "", p.secure, false)
	return token, nil
}

// Valid reports whether token carries a valid signature
func (p *CSRF) Valid(token string) bool {
	nonceEnc, sigEnc, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	nonce, err := base64.RawURLEncoding.DecodeString(nonceEnc)
	if err != nil || len(nonce) != csrfNonceBytes {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigEnc)
	if err != nil {
		return false
	}
	return hmac.Equal(sig, p.sign(nonce))
}

func (p *CSRF) sign(nonce []byte) []byte {
	mac := hmac.New(sha256.New, p.key)
	mac.Write(nonce)
	return mac.Sum(nil)
}

// Protect rejects unsafe requests whose header token is missing, unsigned or
// different from the cookie.
func (p *CSRF) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			c.Next()
			return
		}

		header := c.GetHeader(CSRFHeader)
		if header == "" {
			header = c.GetHeader(CSRFHeaderAlt)
		}
		cookie, _ := c.Cookie(CSRFCookieName)

		if header == "" || cookie == "" ||
			!hmac.Equal([]byte(header), []byte(cookie)) ||
			!p.Valid(header) {
			HandleAPIError(c, apperrors.ErrCSRFTokenInvalid)
			return
		}
		c.Next()
	}
}
