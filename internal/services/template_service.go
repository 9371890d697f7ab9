package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/models"
)

// TemplateService resolves and manages merchant email templates. Variant
// titles double as language labels, so the order's own line items drive
// template selection.
type TemplateService struct {
	templates          models.TemplateRepository
	supportedLanguages []string
	defaultLanguage    string
	logger             *logrus.Logger
}

// NewTemplateService creates a new template service
func NewTemplateService(templates models.TemplateRepository, supportedLanguages []string, defaultLanguage string, logger *logrus.Logger) *TemplateService {
	if logger == nil {
		logger = logrus.New()
	}
	return &TemplateService{
		templates:          templates,
		supportedLanguages: supportedLanguages,
		defaultLanguage:    defaultLanguage,
		logger:             logger,
	}
}

// Resolve picks the best template for an order. Variant titles are tallied
// by frequency and tried most-common first; then the default language; then
// any template the shop has. Returns nil when the shop has none, in which
// case the caller falls back to the built-in email.
func (s *TemplateService) Resolve(ctx context.Context, shop string, lineItems []models.LineItem) (*models.EmailTemplate, error) {
	for _, lang := range s.rankLanguages(lineItems) {
		if !s.isSupported(lang) {
			continue
		}
		template, err := s.templates.GetByLanguage(ctx, shop, lang)
		if err != nil {
			return nil, fmt.Errorf("failed to look up template: %w", err)
		}
		if template != nil {
			s.logger.WithField("language", lang).Debug("Resolved template from order variants")
			return template, nil
		}
	}

	template, err := s.templates.GetByLanguage(ctx, shop, s.defaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to look up default template: %w", err)
	}
	if template != nil {
		return template, nil
	}

	template, err = s.templates.GetAny(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to look up fallback template: %w", err)
	}
	return template, nil
}

// rankLanguages orders the variant titles of an order by frequency,
// most common first. Ties break on first appearance to keep the result
// deterministic.
func (s *TemplateService) rankLanguages(lineItems []models.LineItem) []string {
	counts := make(map[string]int)
	var order []string
	for _, item := range lineItems {
		if item.VariantTitle == "" {
			continue
		}
		if _, seen := counts[item.VariantTitle]; !seen {
			order = append(order, item.VariantTitle)
		}
		counts[item.VariantTitle]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}

func (s *TemplateService) isSupported(language string) bool {
	for _, lang := range s.supportedLanguages {
		if lang == language {
			return true
		}
	}
	return false
}

// SupportedLanguages returns the configured language label list
func (s *TemplateService) SupportedLanguages() []string {
	return s.supportedLanguages
}

// List returns all templates for a shop ordered by language
func (s *TemplateService) List(ctx context.Context, shop string) ([]*models.EmailTemplate, error) {
	return s.templates.List(ctx, shop)
}

// Get returns a single template by language, nil when absent
func (s *TemplateService) Get(ctx context.Context, shop, language string) (*models.EmailTemplate, error) {
	return s.templates.GetByLanguage(ctx, shop, language)
}

// Save creates or replaces a template keyed by (shop, language)
func (s *TemplateService) Save(ctx context.Context, template *models.EmailTemplate) error {
	return s.templates.Upsert(ctx, template)
}

// Create inserts a new template. Returns repository.ErrTemplateExists when
// the (shop, language) pair is already taken.
func (s *TemplateService) Create(ctx context.Context, template *models.EmailTemplate) error {
	return s.templates.Create(ctx, template)
}

// Delete removes a template by language
func (s *TemplateService) Delete(ctx context.Context, shop, language string) error {
	return s.templates.Delete(ctx, shop, language)
}
