package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
)

func TestAttributeExtractor_ParsesValidPairs(t *testing.T) {
	e := NewAttributeExtractor(&mockLLM{}, 0)

	pairs, err := e.Parse(`[("Category": "Party Dress"), ("Colour": "Red"), ("Colour": "Blue")]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
	if pairs[0].Name != "Category" || pairs[0].Value != "Party Dress" {
		t.Errorf("unexpected first pair: %+v", pairs[0])
	}
	if pairs[2].Name != "Colour" || pairs[2].Value != "Blue" {
		t.Errorf("repeated attribute should yield one pair per value: %+v", pairs[2])
	}
}

func TestAttributeExtractor_RejectsUnknownAttribute(t *testing.T) {
	e := NewAttributeExtractor(&mockLLM{}, 0)

	_, err := e.Parse(`[("Category": "Dress"), ("Shoe_size": "42")]`)
	if err == nil {
		t.Fatal("unknown attribute must be rejected")
	}
	var parseErr *entities.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %T", err)
	}
}

func TestAttributeExtractor_NormalizesCasing(t *testing.T) {
	e := NewAttributeExtractor(&mockLLM{}, 0)

	pairs, err := e.Parse(`[("sleeve_length": "Short")]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if pairs[0].Name != "Sleeve_length" {
		t.Errorf("expected canonical casing, got %q", pairs[0].Name)
	}
}

func TestAttributeExtractor_NoPairsIsParseError(t *testing.T) {
	e := NewAttributeExtractor(&mockLLM{}, 0)

	_, err := e.Parse("I could not find any attributes in this query.")
	var parseErr *entities.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError for pairless output, got %T", err)
	}
}

func TestAttributeExtractor_ExtractUsesZeroTemperature(t *testing.T) {
	llm := &mockLLM{responses: []string{`[("Category": "Dress")]`}}
	e := NewAttributeExtractor(llm, 0)

	pairs, err := e.Extract(context.Background(), "show me dresses", nil)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if llm.lastRequest.Options.Temperature == nil || *llm.lastRequest.Options.Temperature != 0 {
		t.Error("extraction must run with temperature 0")
	}
}

func TestAttributeExtractor_ModelErrorPropagates(t *testing.T) {
	llm := &mockLLM{err: errors.New("model down")}
	e := NewAttributeExtractor(llm, 0)

	_, err := e.Extract(context.Background(), "query", nil)
	var genErr *entities.GenerationError
	if !errors.As(err, &genErr) {
		t.Errorf("expected GenerationError, got %T", err)
	}
}

func TestImageSearch_Find(t *testing.T) {
	llm := &mockLLM{responses: []string{`[("Category": "Dress"), ("Colour": "Red")]`}}
	finder := &mockFinder{images: []string{"http://img/1.jpg", "http://img/2.jpg"}}
	s := NewImageSearch(NewAttributeExtractor(llm, 0), finder)

	result, err := s.Find(context.Background(), "red dress", nil)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(result.Images) != 2 {
		t.Errorf("expected 2 images, got %d", len(result.Images))
	}
	if len(result.Attributes) != 2 {
		t.Errorf("expected 2 attributes, got %d", len(result.Attributes))
	}
	if len(finder.last) != 2 {
		t.Errorf("finder should receive the extracted attributes, got %v", finder.last)
	}
}

func TestImageSearch_ExtractionFailureStopsLookup(t *testing.T) {
	llm := &mockLLM{responses: []string{"nothing structured here"}}
	finder := &mockFinder{images: []string{"x"}}
	s := NewImageSearch(NewAttributeExtractor(llm, 0), finder)

	_, err := s.Find(context.Background(), "query", nil)
	if err == nil {
		t.Fatal("expected extraction error")
	}
	if finder.last != nil {
		t.Error("finder must not be called when extraction fails")
	}
}
