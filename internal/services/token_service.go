package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/cache"
	"pdf-delivery-service/internal/models"
)

// Redemption failure modes, mapped to HTTP statuses by the download handler.
var (
	ErrTokenNotFound  = errors.New("invalid download link")
	ErrTokenExpired   = errors.New("download link has expired")
	ErrTokenExhausted = errors.New("download limit reached")
	ErrPDFNotFound    = errors.New("invalid PDF")
)

const defaultPDFCacheTTL = 5 * time.Minute

// TokenService issues and redeems bounded-use download tokens.
type TokenService struct {
	tokens   models.TokenRepository
	pdfs     models.ProductPDFRepository
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *logrus.Logger
	now      func() time.Time
}

// NewTokenService creates a new token service. cacheTTL bounds how long
// resolved PDF records stay cached on the redemption path.
func NewTokenService(tokens models.TokenRepository, pdfs models.ProductPDFRepository, c cache.Cache, cacheTTL time.Duration, logger *logrus.Logger) *TokenService {
	if logger == nil {
		logger = logrus.New()
	}
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultPDFCacheTTL
	}
	return &TokenService{
		tokens:   tokens,
		pdfs:     pdfs,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Issue returns the existing token for (pdfID, orderID) or mints a new one
// under the given policy. Issuance is idempotent per pair.
func (s *TokenService) Issue(ctx context.Context, pdfID, orderID, productTitle, pdfName string, policy models.TokenPolicy) (*models.DownloadToken, error) {
	existing, err := s.tokens.GetByPDFAndOrder(ctx, pdfID, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing token: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	raw := make([]byte, policy.TokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token := &models.DownloadToken{
		ID:           uuid.New(),
		Token:        hex.EncodeToString(raw),
		PDFID:        pdfID,
		OrderID:      orderID,
		ProductTitle: productTitle,
		PDFName:      pdfName,
		ExpiresAt:    s.now().Add(policy.TTL),
		UsedCount:    0,
		MaxUses:      policy.MaxUses,
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to create download token: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"pdf_id":   pdfID,
		"order_id": orderID,
	}).Info("Issued download token")

	return token, nil
}

// Redeem validates a token and returns the PDF attachment it points at.
// The usage counter is incremented best-effort; a failed increment does not
// block the download.
func (s *TokenService) Redeem(ctx context.Context, tokenValue string) (*models.PDFAttachment, error) {
	token, err := s.tokens.GetByToken(ctx, tokenValue)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if token == nil {
		return nil, ErrTokenNotFound
	}

	if token.Expired(s.now()) {
		return nil, ErrTokenExpired
	}
	if token.Exhausted() {
		return nil, ErrTokenExhausted
	}

	attachment, err := s.findPDF(ctx, token.PDFID)
	if err != nil {
		return nil, err
	}
	if attachment == nil {
		return nil, ErrPDFNotFound
	}

	if err := s.tokens.IncrementUsage(ctx, token.ID.String()); err != nil {
		s.logger.WithError(err).WithField("token_id", token.ID).Warn("Failed to increment token usage")
	}

	return attachment, nil
}

// findPDF locates the attachment for a pdfID, reading through the cache.
func (s *TokenService) findPDF(ctx context.Context, pdfID string) (*models.PDFAttachment, error) {
	cacheKey := "pdf:" + pdfID

	var cached models.PDFAttachment
	if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	record, err := s.pdfs.FindByPDFID(ctx, pdfID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up PDF record: %w", err)
	}
	if record == nil {
		return nil, nil
	}

	attachments, err := record.Attachments()
	if err != nil {
		return nil, fmt.Errorf("failed to decode PDF attachments: %w", err)
	}

	for i := range attachments {
		if attachments[i].ID == pdfID {
			if err := s.cache.SetJSON(ctx, cacheKey, &attachments[i], s.cacheTTL); err != nil {
				s.logger.WithError(err).Debug("Failed to cache PDF attachment")
			}
			return &attachments[i], nil
		}
	}

	return nil, nil
}
