package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"frontend/internal/crypto"
	"frontend/internal/format"
	"frontend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	WalletNetwork = "Polygon Mumbai"
	// MockBalance is the fixed balance the demo wallet reports.
	MockBalance = "12.5"
)

// DemoAddresses are handed out when a visitor connects without an address.
var DemoAddresses = []string{
	"0x742d35Cc6634C0532925a3b8D4C0C8b3C2e1e416",
	"0x1234567890123456789012345678901234567890",
	"0xabcdefabcdefabcdefabcdefabcdefabcdefabcd",
}

// WalletSession is a connected mock wallet.
type WalletSession struct {
	Address   string
	Network   string
	Token     string
	ExpiresAt time.Time
}

type WalletService interface {
	Connect(address string) (*WalletSession, error)
	Parse(token string) (*WalletSession, error)
}

type walletService struct {
	keyManager *crypto.KeyManager
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewWalletService(keyManager *crypto.KeyManager, ttl time.Duration, logger *zap.Logger) WalletService {
	return &walletService{
		keyManager: keyManager,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
}

// Connect validates address, or picks a demo address when it is empty, and
// issues a signed session token for it.
func (s *walletService) Connect(address string) (*WalletSession, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		picked, err := randomDemoAddress()
		if err != nil {
			return nil, err
		}
		address = picked
	}
	if !format.ValidEthereumAddress(address) {
		return nil, &ValidationError{Field: "address", Message: "Please enter a valid wallet address", Err: ErrInvalidWallet}
	}

	now := s.now()
	expirationTime := now.Add(s.ttl)
	claims := &models.WalletClaims{
		Wallet:  address,
		Network: WalletNetwork,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strings.ToLower(address),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.keyManager.SigningKey())
	if err != nil {
		s.logger.Error("Failed to sign wallet session", zap.Error(err))
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("Wallet connected", zap.String("wallet", format.Address(address)))
	return &WalletSession{
		Address:   address,
		Network:   WalletNetwork,
		Token:     tokenString,
		ExpiresAt: expirationTime,
	}, nil
}

// Parse verifies a session token and returns the wallet it was issued for.
func (s *walletService) Parse(tokenString string) (*WalletSession, error) {
	claims := &models.WalletClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.keyManager.SigningKey(), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", ErrInvalidSession)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || !format.ValidEthereumAddress(claims.Wallet) {
		return nil, ErrInvalidSession
	}

	session := &WalletSession{
		Address: claims.Wallet,
		Network: claims.Network,
		Token:   tokenString,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func randomDemoAddress() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(DemoAddresses))))
	if err != nil {
		return "", fmt.Errorf("failed to pick demo address: %w", err)
	}
	return DemoAddresses[n.Int64()], nil
}
