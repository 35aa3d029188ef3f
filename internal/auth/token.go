package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arturkryukov/confshare/internal/domain/model"
)

// ErrInvalidToken — токен не прошёл проверку подписи или срока действия.
var ErrInvalidToken = errors.New("недействительный токен")

// Claims — утверждения токена докладчика: стандартные плюс имя
// пользователя и отображаемое имя.
type Claims struct {
	jwt.RegisteredClaims
	// Username — имя пользователя докладчика.
	Username string `json:"username"`
	// DisplayName — отображаемое имя.
	DisplayName string `json:"display_name,omitempty"`
}

// TokenService выпускает и проверяет JWT докладчиков (HS256).
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService создаёт сервис токенов с секретом secret и сроком
// действия ttl.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue выпускает токен для докладчика sp со сроком действия ttl
// начиная с now. Возвращает подписанный токен и момент его истечения.
func (t *TokenService) Issue(sp *model.Speaker, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(t.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sp.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username:    sp.Username,
		DisplayName: sp.DisplayName,
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Verify проверяет подпись и срок действия токена. Возвращает claims
// или ErrInvalidToken — без деталей, чтобы не подсказывать причину
// отказа.
func (t *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(tk *jwt.Token) (interface{}, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
