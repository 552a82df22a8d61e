package usecases

import (
	"context"
	"log"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

// ImageSearch is the image-lookup pipeline: extract product attributes
// from the query, then ask the external product finder for matching
// image URLs. It is independent of the answering pipeline.
type ImageSearch struct {
	extractor *AttributeExtractor
	finder    ports.ImageFinder
}

// NewImageSearch creates an ImageSearch use case.
func NewImageSearch(extractor *AttributeExtractor, finder ports.ImageFinder) *ImageSearch {
	return &ImageSearch{extractor: extractor, finder: finder}
}

// Find returns the extracted attributes alongside the images the
// product finder matched for them.
func (s *ImageSearch) Find(ctx context.Context, query string, history []entities.ChatMessage) (*entities.ImageResult, error) {
	attrs, err := s.extractor.Extract(ctx, query, history)
	if err != nil {
		return nil, err
	}
	log.Printf("[DEBUG] ImageSearch: extracted %d attribute pairs", len(attrs))

	images, err := s.finder.FindProducts(ctx, attrs)
	if err != nil {
		return nil, err
	}
	return &entities.ImageResult{Attributes: attrs, Images: images}, nil
}
