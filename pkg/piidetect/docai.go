package piidetect

import (
	"context"
	"fmt"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// DocAIConfig identifies a Google Document AI entity-extraction processor.
type DocAIConfig struct {
	ProjectID   string `yaml:"project_id"`
	Location    string `yaml:"location"`
	ProcessorID string `yaml:"processor_id"`
}

// DocAIExtractor implements EntityExtractor against a Document AI processor.
// Authentication uses GOOGLE_APPLICATION_CREDENTIALS from the environment.
type DocAIExtractor struct {
	cfg DocAIConfig
}

// NewDocAIExtractor builds an extractor for the given processor.
func NewDocAIExtractor(cfg DocAIConfig) (*DocAIExtractor, error) {
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("document AI config requires project_id, location and processor_id")
	}
	return &DocAIExtractor{cfg: cfg}, nil
}

// ExtractEntities sends the page text to the processor as a plain-text raw
// document and buckets the returned entities into the four categories.
// Entity types the mapping does not know are dropped.
func (e *DocAIExtractor) ExtractEntities(ctx context.Context, pageText string) (Entities, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", e.cfg.Location)

	client, err := documentai.NewDocumentProcessorClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return Entities{}, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	defer client.Close()

	name := fmt.Sprintf(
		"projects/%s/locations/%s/processors/%s",
		e.cfg.ProjectID, e.cfg.Location, e.cfg.ProcessorID,
	)

	req := &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  []byte(pageText),
				MimeType: "text/plain",
			},
		},
		SkipHumanReview: true,
	}

	resp, err := client.ProcessDocument(ctx, req)
	if err != nil {
		return Entities{}, fmt.Errorf("failed to process document: %w", err)
	}

	var ents Entities
	for _, entity := range resp.GetDocument().GetEntities() {
		mention := strings.TrimSpace(entity.GetMentionText())
		if mention == "" {
			continue
		}
		switch normalizeEntityType(entity.GetType()) {
		case TypeName:
			ents.Names = append(ents.Names, mention)
		case TypeCompany:
			ents.Companies = append(ents.Companies, mention)
		case TypeSchool:
			ents.Schools = append(ents.Schools, mention)
		case TypeAddress:
			ents.Addresses = append(ents.Addresses, mention)
		}
	}
	return ents, nil
}

// normalizeEntityType maps processor-specific entity type labels onto the
// four detection categories. Unknown labels map to the empty type.
func normalizeEntityType(label string) Type {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "person", "name", "person_name", "full_name":
		return TypeName
	case "organization", "company", "employer", "company_name":
		return TypeCompany
	case "school", "university", "college", "educational_institution":
		return TypeSchool
	case "address", "location", "street_address", "postal_address":
		return TypeAddress
	default:
		return ""
	}
}
