package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"art-market/internal/blob"
	"art-market/internal/models"
	"art-market/internal/store"
	"art-market/internal/util"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultArtist is the creator name used when none is supplied
const DefaultArtist = "Anonymous"

var dataURLPattern = regexp.MustCompile(`^data:(image/(png|jpeg));base64,(.+)$`)

// MarketplaceService handles artwork submission and read paths
type MarketplaceService struct {
	ledger *store.Ledger
	blobs  blob.Store
	events EventPublisher
	policy *bluemonday.Policy
	logger *zap.Logger
}

// NewMarketplaceService creates a new marketplace service
func NewMarketplaceService(ledger *store.Ledger, blobs blob.Store, events EventPublisher) *MarketplaceService {
	return &MarketplaceService{
		ledger: ledger,
		blobs:  blobs,
		events: events,
		policy: bluemonday.StrictPolicy(),
		logger: util.Named("marketplace"),
	}
}

// SubmitRequest represents a new artwork listing
type SubmitRequest struct {
	Artist  string           `json:"artist"`
	PricePi *decimal.Decimal `json:"pricePi"`
	DataURL string           `json:"dataURL"`
}

// Submit stores the image and inserts a PENDING record
func (s *MarketplaceService) Submit(ctx context.Context, req *SubmitRequest) (*models.Artwork, error) {
	ctx, span := util.StartSpan(ctx, "MarketplaceService.Submit")
	defer span.End()

	mime, data, err := decodeDataURL(req.DataURL)
	if err != nil {
		return nil, err
	}

	price := decimal.NewFromInt(1)
	if req.PricePi != nil {
		price = *req.PricePi
	}
	if !price.IsPositive() {
		return nil, &models.ValidationError{Field: "pricePi", Reason: "must be positive"}
	}

	id := uuid.New().String()
	ext := ".png"
	if mime == "image/jpeg" {
		ext = ".jpg"
	}

	ref, err := s.blobs.Put(ctx, id+ext, mime, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	sum := sha256.Sum256(data)
	now := time.Now()
	art := &models.Artwork{
		ID:          id,
		ImageRef:    ref,
		ContentHash: hex.EncodeToString(sum[:]),
		Status:      models.StatusPending,
		Price:       price,
		Creator:     s.displayName(req.Artist),
		CreatedAt:   now,
		LastEventAt: now,
		History:     []models.SaleEvent{},
	}

	if err := s.ledger.Insert(ctx, art); err != nil {
		s.discardImage(ctx, ref)
		return nil, fmt.Errorf("failed to insert artwork: %w", err)
	}

	util.ArtworksSubmittedTotal.Inc()
	s.logger.Info("Artwork submitted",
		zap.String("art_id", art.ID),
		zap.String("creator", art.Creator),
		zap.String("price", art.Price.String()))

	event := &models.ArtworkSubmittedEvent{
		BaseEvent: newBaseEvent(models.EventTypeArtworkSubmitted),
		ArtID:     art.ID,
		Creator:   art.Creator,
		Price:     art.Price,
	}
	if err := s.events.PublishArtworkSubmitted(ctx, event); err != nil {
		s.logger.Error("Failed to publish ArtworkSubmitted event", zap.Error(err))
	}

	return art, nil
}

// Gallery returns all artworks, most recently submitted first
func (s *MarketplaceService) Gallery(ctx context.Context) ([]models.Artwork, error) {
	return s.ledger.List(ctx)
}

// Image returns the stored bytes of an artwork with their MIME type
func (s *MarketplaceService) Image(ctx context.Context, artID string) ([]byte, string, error) {
	art, err := s.ledger.FindByID(ctx, artID)
	if err != nil {
		return nil, "", err
	}

	data, err := s.blobs.Get(ctx, art.ImageRef)
	if err != nil {
		return nil, "", err
	}
	return data, blob.ContentType(art.ImageRef), nil
}

// discardImage drops a blob whose ledger record was never written
func (s *MarketplaceService) discardImage(ctx context.Context, ref string) {
	if err := s.blobs.Delete(ctx, ref); err != nil {
		s.logger.Warn("Orphaned image left in blob store", zap.String("image_ref", ref), zap.Error(err))
	}
}

// displayName strips markup from the unauthenticated artist name. The
// sanitizer entity-encodes its output; the name is stored as plain text.
func (s *MarketplaceService) displayName(artist string) string {
	name := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(artist)))
	if name == "" {
		return DefaultArtist
	}
	return name
}

func decodeDataURL(dataURL string) (string, []byte, error) {
	if dataURL == "" {
		return "", nil, &models.ValidationError{Field: "dataURL", Reason: "no image data"}
	}

	matches := dataURLPattern.FindStringSubmatch(dataURL)
	if matches == nil {
		return "", nil, &models.ValidationError{Field: "dataURL", Reason: "expected a base64 image/png or image/jpeg data URL"}
	}

	data, err := base64.StdEncoding.DecodeString(matches[3])
	if err != nil {
		return "", nil, &models.ValidationError{Field: "dataURL", Reason: "invalid base64 payload"}
	}
	return matches[1], data, nil
}
