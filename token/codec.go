package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MrEthical07/goSession/role"
)

// Algorithm is the only JWS algorithm the codec signs with or accepts.
const Algorithm = "HS256"

var errAlgorithmMismatch = errors.New("unexpected signing algorithm")

// Config configures a Codec.
type Config struct {
	// Secret is the HMAC key. It is copied at construction; later changes to the slice have
	// no effect on the codec.
	Secret []byte
	// Issuer, when set, is written as iss and required on verification.
	Issuer string
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Codec mints and verifies session tokens. A Codec is immutable and safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type sessionClaims struct {
	UID   string    `json:"uid"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  role.Role `json:"role"`
	IID   string    `json:"iid"`
	jwt.RegisteredClaims
}

// NewCodec returns a codec holding a private copy of cfg.Secret. An empty secret is
// rejected with ErrMissingKey; there is no fallback key.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingKey
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{
		secret: secret,
		issuer: strings.TrimSpace(cfg.Issuer),
		now:    now,
	}, nil
}

// Now returns the codec's clock reading.
func (c *Codec) Now() time.Time {
	return c.now()
}

// Mint signs id with a fresh validity window of SessionTTL starting now.
//
// Timestamps are truncated to whole seconds, matching what the token encodes, so the
// returned payload equals what Verify later yields for the token.
func (c *Codec) Mint(id Identity) (string, *Payload, error) {
	if err := id.Validate(); err != nil {
		return "", nil, err
	}

	issuedAt := c.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(SessionTTL)
	claims := sessionClaims{
		UID:   id.UserID,
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
		IID:   id.IdentityID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	return signed, &Payload{
		Identity:  id,
		TokenID:   claims.ID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks the signature, algorithm, structure and expiry of raw and reports the
// outcome as a tagged Result. An empty string yields StatusAbsent.
func (c *Codec) Verify(raw string) Result {
	if raw == "" {
		return Absent()
	}

	options := []jwt.ParserOption{
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		options = append(options, jwt.WithIssuer(c.issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(raw, &sessionClaims{}, c.keyFunc)
	if err != nil {
		return failure(classify(err), err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return failure(StatusMalformed, jwt.ErrTokenInvalidClaims)
	}
	payload, err := claims.payload()
	if err != nil {
		return failure(StatusMalformed, err)
	}
	if !payload.ValidAt(c.now()) {
		return failure(StatusExpired, ErrExpired)
	}

	return Result{Status: StatusValid, Payload: payload}
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method == nil || t.Method.Alg() != Algorithm {
		alg, _ := t.Header["alg"].(string)
		return nil, fmt.Errorf("%w: %q", errAlgorithmMismatch, alg)
	}
	return c.secret, nil
}

// payload converts verified claims, rejecting tokens that carry a well-formed signature
// but not a complete session.
func (s *sessionClaims) payload() (*Payload, error) {
	if s.IssuedAt == nil || s.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing iat or exp", ErrMalformed)
	}
	issuedAt := s.IssuedAt.Time.UTC()
	expiresAt := s.ExpiresAt.Time.UTC()
	if !expiresAt.Equal(issuedAt.Add(SessionTTL)) {
		return nil, fmt.Errorf("%w: validity window is not %s", ErrMalformed, SessionTTL)
	}

	id := Identity{
		UserID:     s.UID,
		Email:      s.Email,
		Name:       s.Name,
		Role:       s.Role,
		IdentityID: s.IID,
	}
	// Role is not checked here: signed tokens may carry roles this build does not know,
	// and the role router decides where those land.
	if strings.TrimSpace(id.UserID) == "" || strings.TrimSpace(id.Email) == "" ||
		strings.TrimSpace(id.Name) == "" || strings.TrimSpace(id.IdentityID) == "" || id.Role == 0 {
		return nil, fmt.Errorf("%w: missing identity claim", ErrMalformed)
	}

	return &Payload{
		Identity:  id,
		TokenID:   s.ID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func classify(err error) Status {
	switch {
	case errors.Is(err, errAlgorithmMismatch), errors.Is(err, jwt.ErrTokenUnverifiable):
		return StatusAlgorithmMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return StatusTampered
	case errors.Is(err, jwt.ErrTokenExpired):
		return StatusExpired
	default:
		return StatusMalformed
	}
}
